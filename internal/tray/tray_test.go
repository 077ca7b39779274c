package tray

import "testing"

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("new tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if !tr.IsEnabled() {
		t.Error("two toggles should restore enabled")
	}
	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("callback values = %v, want [false true]", got)
	}
}

func TestTray_SetLastStateBeforeReady(t *testing.T) {
	tr := New()
	tr.SetLastState("10110")

	if tr.last != "10110" {
		t.Errorf("last = %q, want 10110", tr.last)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Transmitting"},
		{toggleTitle(false), "○ Paused"},
		{lastTitle(""), "Last: none"},
		{lastTitle("01100"), "Last: 01100"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
