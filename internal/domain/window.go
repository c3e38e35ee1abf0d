package domain

import (
	"fmt"
	"time"
)

// Window is a growth lookback window kind.
type Window string

const (
	Window1d  Window = "1d"
	Window3d  Window = "3d"
	Window7d  Window = "7d"
	Window14d Window = "14d"
	Window30d Window = "30d"
)

var windowDurations = map[Window]time.Duration{
	Window1d:  24 * time.Hour,
	Window3d:  3 * 24 * time.Hour,
	Window7d:  7 * 24 * time.Hour,
	Window14d: 14 * 24 * time.Hour,
	Window30d: 30 * 24 * time.Hour,
}

// String returns the string representation of Window.
func (w Window) String() string {
	return string(w)
}

// IsValid checks if the window is a supported kind.
func (w Window) IsValid() bool {
	_, ok := windowDurations[w]
	return ok
}

// Duration returns the lookback length. Zero for unknown windows.
func (w Window) Duration() time.Duration {
	return windowDurations[w]
}

// DurationMs returns the lookback length in milliseconds.
func (w Window) DurationMs() int64 {
	return w.Duration().Milliseconds()
}

// ParseWindow converts a configured window code such as "7d".
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if !w.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
	}
	return w, nil
}
