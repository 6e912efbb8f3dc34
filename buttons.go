package ledfx

import (
	"fmt"
	"strings"
)

// Button is a logical button on the device.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonA
	ButtonB
	ButtonHome
	ButtonSelect
)

var buttonNames = [...]string{
	ButtonUp:     "up",
	ButtonDown:   "down",
	ButtonA:      "a",
	ButtonB:      "b",
	ButtonHome:   "home",
	ButtonSelect: "select",
}

// String returns the lowercase name of the button.
func (b Button) String() string {
	if b < 0 || int(b) >= len(buttonNames) {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton parses a button name as returned by Button.String. It is case
// insensitive.
func ParseButton(name string) (Button, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for b, n := range buttonNames {
		if n == name {
			return Button(b), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (b Button) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ButtonEvent is an edge of a button.
type ButtonEvent struct {
	Button  Button
	Pressed bool
}
