package release

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wishlist-momentum-lab/internal/domain"
)

func TestIsUnreleased(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"tba", "TBA", true},
		{"coming soon", "Coming Soon", true},
		{"to be announced", "To be announced", true},
		{"unparseable", "when it's done", true},
		{"past iso", "2023-11-02", false},
		{"future iso", "2024-06-01", true},
		{"same day", "2024-03-10", false},
		{"past month name", "Jan 5, 2024", false},
		{"future month name", "Oct 12, 2026", true},
		{"past quarter", "Q4 2023", false},
		{"future quarter", "Q3 2024", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnreleased(tt.raw, asOf), tt.raw)
		})
	}
}

func TestPredicate(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	eligible := Predicate(asOf)

	assert.True(t, eligible(&domain.Item{ReleaseDateRaw: "Coming soon"}))
	assert.False(t, eligible(&domain.Item{ReleaseDateRaw: "2020-01-01"}))
	assert.True(t, All(&domain.Item{ReleaseDateRaw: "2020-01-01"}))
}
