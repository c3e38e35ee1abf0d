package domain

import "fmt"

// Platform identifies an upstream source of items.
type Platform string

const (
	PlatformSteam Platform = "steam"
	PlatformItch  Platform = "itch"
	PlatformEpic  Platform = "epic"
)

// AllPlatforms lists every known platform in a stable order.
var AllPlatforms = []Platform{PlatformSteam, PlatformItch, PlatformEpic}

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid checks if the platform is a known value.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformSteam, PlatformItch, PlatformEpic:
		return true
	}
	return false
}

// ParsePlatform converts a configured name into a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}
