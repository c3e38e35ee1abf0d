// Package release decides whether an item counts as not yet released,
// based on the free-form release string reported by its platform.
package release

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"wishlist-momentum-lab/internal/domain"
)

// placeholders mark release strings that announce no concrete date.
var placeholders = []string{"tba", "tbd", "coming soon", "comingsoon", "soon", "to be announced"}

var quarterPattern = regexp.MustCompile(`(?i)^q([1-4])\s*,?\s*(\d{4})$`)

// IsUnreleased reports whether raw describes a release after asOf.
// Empty, placeholder and unparseable strings count as unreleased.
func IsUnreleased(raw string, asOf time.Time) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}

	lowered := strings.ToLower(raw)
	for _, p := range placeholders {
		if strings.Contains(lowered, p) {
			return true
		}
	}

	released, ok := Parse(raw)
	if !ok {
		return true
	}
	return dateOnly(released).After(dateOnly(asOf))
}

// Parse extracts a release date from raw. Quarters resolve to their first day.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if m := quarterPattern.FindStringSubmatch(raw); m != nil {
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), true
	}

	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t, true
	}
	// Store pages often write "12 Oct, 2026".
	if t, err := dateparse.ParseIn(strings.ReplaceAll(raw, ",", ""), time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Predicate returns an eligibility check keeping only items unreleased at asOf.
func Predicate(asOf time.Time) func(*domain.Item) bool {
	return func(item *domain.Item) bool {
		return IsUnreleased(item.ReleaseDateRaw, asOf)
	}
}

// All is an eligibility check that keeps every item.
func All(*domain.Item) bool { return true }

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
