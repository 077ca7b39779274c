package fingers

import (
	"fmt"
	"strings"
)

// Open reports whether finger f is open.
func (s State) Open(f Finger) bool {
	return s[f] == 1
}

// OpenCount returns the number of open fingers.
func (s State) OpenCount() int {
	n := 0
	for _, b := range s {
		if b == 1 {
			n++
		}
	}
	return n
}

// String renders the state as five '0'/'1' digits, thumb first.
func (s State) String() string {
	var buf [NumFingers]byte
	for i, b := range s {
		buf[i] = '0' + b
	}
	return string(buf[:])
}

// List renders the state as a bracketed list, e.g. "[1, 0, 1, 1, 0]".
func (s State) List() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('0' + v)
	}
	b.WriteByte(']')
	return b.String()
}

// Line returns the serial wire form: the digits followed by '\n'.
func (s State) Line() []byte {
	line := make([]byte, 0, NumFingers+1)
	for _, b := range s {
		line = append(line, '0'+b)
	}
	return append(line, '\n')
}

// MarshalText encodes the state as its digit string.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a digit string produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses five '0'/'1' digits, with an optional trailing newline.
func ParseState(str string) (State, error) {
	var s State
	if n := len(str); n > 0 && str[n-1] == '\n' {
		str = str[:n-1]
	}
	if len(str) != int(NumFingers) {
		return s, fmt.Errorf("invalid finger state %q: want %d digits", str, NumFingers)
	}
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '0':
			s[i] = 0
		case '1':
			s[i] = 1
		default:
			return s, fmt.Errorf("invalid finger state %q: digit %d is %q", str, i, str[i])
		}
	}
	return s, nil
}
