// Package buttons reads the physical buttons of the device and turns them
// into button events.
package buttons

import (
	"fmt"

	"dev.acmcsuf.com/ledfx"
)

// Sink receives button events. It is implemented by *ledfx.Dispatcher.
type Sink interface {
	Send(ev ledfx.ButtonEvent) bool
}

func parseButtons[T any](m map[string]T) (map[ledfx.Button]T, error) {
	out := make(map[ledfx.Button]T, len(m))
	for name, v := range m {
		b, err := ledfx.ParseButton(name)
		if err != nil {
			return nil, fmt.Errorf("invalid button mapping: %w", err)
		}
		out[b] = v
	}
	return out, nil
}
