package link

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/fingerlink/internal/fingers"
	"github.com/google/go-cmp/cmp"
	"go.bug.st/serial"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = orig })
	return &slept
}

func TestPortOptions_Normalize_Defaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := DefaultPortOptions()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestPortOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "explicit values",
			opts: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even", SettleDelay: time.Second},
			want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E", SettleDelay: time.Second},
		},
		{
			name: "negative baud defaults",
			opts: PortOptions{BaudRate: -5, SettleDelay: -1},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N", SettleDelay: -1},
		},
		{
			name: "odd parity lowercase",
			opts: PortOptions{Parity: " o "},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "O", SettleDelay: DefaultSettleDelay},
		},
		{name: "nonstandard baud", opts: PortOptions{BaudRate: 12345}, wantErr: true},
		{name: "data bits too high", opts: PortOptions{DataBits: 9}, wantErr: true},
		{name: "data bits too low", opts: PortOptions{DataBits: 4}, wantErr: true},
		{name: "bad stop bits", opts: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", opts: PortOptions{Parity: "mark"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Normalize()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
		want serial.Mode
	}{
		{
			name: "defaults",
			opts: PortOptions{},
			want: serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		},
		{
			name: "7E2",
			opts: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"},
			want: serial.Mode{BaudRate: 9600, DataBits: 7, Parity: serial.EvenParity, StopBits: serial.TwoStopBits},
		},
		{
			name: "odd",
			opts: PortOptions{Parity: "O"},
			want: serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.OddParity, StopBits: serial.OneStopBit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.opts.SerialMode()
			if err != nil {
				t.Fatalf("SerialMode() error = %v", err)
			}
			if mode.BaudRate != tt.want.BaudRate || mode.DataBits != tt.want.DataBits ||
				mode.Parity != tt.want.Parity || mode.StopBits != tt.want.StopBits {
				t.Errorf("SerialMode() = %+v, want %+v", *mode, tt.want)
			}
		})
	}

	if _, err := (PortOptions{Parity: "X"}).SerialMode(); err == nil {
		t.Error("expected error for invalid parity")
	}
}

func TestPortOptions_String(t *testing.T) {
	if got := DefaultPortOptions().String(); got != "115200 8N1" {
		t.Errorf("String() = %q, want %q", got, "115200 8N1")
	}
}

func TestOpen(t *testing.T) {
	t.Run("opens and settles", func(t *testing.T) {
		slept := noSleep(t)
		port := NewTestablePort()
		opener := NewMockOpener(port)

		got, err := Open("/dev/ttyACM0", PortOptions{}, opener.Open)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if got != port {
			t.Error("Open() should return the opener's port")
		}
		if len(opener.Calls) != 1 || opener.Calls[0].Path != "/dev/ttyACM0" {
			t.Fatalf("unexpected open calls: %+v", opener.Calls)
		}
		if opener.Calls[0].Mode.BaudRate != 115200 {
			t.Errorf("baud = %d, want 115200", opener.Calls[0].Mode.BaudRate)
		}
		if diff := cmp.Diff([]time.Duration{2 * time.Second}, *slept); diff != "" {
			t.Errorf("settle delay mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("negative settle skips wait", func(t *testing.T) {
		slept := noSleep(t)
		opener := NewMockOpener(NewTestablePort())

		if _, err := Open("COM12", PortOptions{SettleDelay: -1}, opener.Open); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if len(*slept) != 0 {
			t.Errorf("expected no sleep, got %v", *slept)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := Open("", PortOptions{}, NewMockOpener(nil).Open); err == nil {
			t.Error("expected error for empty path")
		}
	})

	t.Run("invalid options", func(t *testing.T) {
		opener := NewMockOpener(NewTestablePort())
		if _, err := Open("COM12", PortOptions{DataBits: 12}, opener.Open); err == nil {
			t.Error("expected error for invalid options")
		}
		if len(opener.Calls) != 0 {
			t.Error("port must not be opened with invalid options")
		}
	})

	t.Run("open failure", func(t *testing.T) {
		noSleep(t)
		opener := NewMockOpener(nil)
		opener.Error = errors.New("no such device")

		_, err := Open("COM12", PortOptions{}, opener.Open)
		if !errors.Is(err, opener.Error) {
			t.Errorf("expected wrapped open error, got %v", err)
		}
	})
}

func TestWriter_Send(t *testing.T) {
	port := NewTestablePort()
	w := NewWriter(port)

	states := []fingers.State{{1, 0, 1, 1, 0}, {0, 0, 0, 0, 0}, {1, 1, 1, 1, 1}}
	for _, s := range states {
		if err := w.Send(s); err != nil {
			t.Fatalf("Send(%v) error = %v", s, err)
		}
	}

	if got := port.Written(); got != "10110\n00000\n11111\n" {
		t.Errorf("written = %q", got)
	}
	if port.WriteCalls != 3 {
		t.Errorf("WriteCalls = %d, want one per state", port.WriteCalls)
	}
}

func TestWriter_SendErrors(t *testing.T) {
	t.Run("write error", func(t *testing.T) {
		port := NewTestablePort()
		port.WriteError = errors.New("device disconnected")
		w := NewWriter(port)

		err := w.Send(fingers.State{1, 1, 1, 1, 1})
		if !errors.Is(err, port.WriteError) {
			t.Errorf("expected wrapped write error, got %v", err)
		}
		if got := port.Written(); got != "" {
			t.Errorf("written = %q, want nothing", got)
		}
	})

	t.Run("short write", func(t *testing.T) {
		port := NewTestablePort()
		port.ShortWrite = true
		w := NewWriter(port)

		if err := w.Send(fingers.State{}); !errors.Is(err, ErrShortWrite) {
			t.Errorf("expected ErrShortWrite, got %v", err)
		}
	})
}

func TestWriter_Close(t *testing.T) {
	port := NewTestablePort()
	w := NewWriter(port)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !port.IsClosed() {
		t.Error("port should be closed")
	}
	if err := w.Send(fingers.State{}); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestNopCloser(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NopCloser(&buf))

	if err := w.Send(fingers.State{0, 1, 1, 0, 0}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.String() != "01100\n" {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestListPorts_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping serial enumeration in short mode")
	}

	ports, err := ListPorts()
	if err != nil {
		t.Skipf("serial enumeration not available: %v", err)
	}
	t.Logf("found %d serial ports: %v", len(ports), ports)
}
