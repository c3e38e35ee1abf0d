package momentum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/growth"
	"wishlist-momentum-lab/internal/storage/memory"
)

func TestRanker_PublishReplacesSet(t *testing.T) {
	store := memory.NewMomentumStore()
	ranker := NewRanker(store, 0, nil)
	ctx := context.Background()

	report := &growth.Report{
		Window: domain.Window7d,
		Results: []*domain.GrowthResult{
			result("a", 3, 100),
			result("b", 7, 100),
		},
		Items: map[string]*domain.Item{
			"a": {ItemID: "a", Platform: domain.PlatformSteam, ExternalID: "1", DisplayName: "Alpha"},
			"b": {ItemID: "b", Platform: domain.PlatformItch, ExternalID: "2", DisplayName: "Bravo"},
		},
	}

	records, err := ranker.Publish(ctx, report, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ItemID)
	assert.Equal(t, "Bravo", records[0].DisplayName)
	assert.Equal(t, domain.PlatformItch, records[0].Platform)

	stored, err := store.Get(ctx, "2024-03-10", domain.Window7d)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// Re-publishing with fewer results fully replaces.
	report.Results = report.Results[:1]
	_, err = ranker.Publish(ctx, report, "2024-03-10")
	require.NoError(t, err)

	stored, err = store.Get(ctx, "2024-03-10", domain.Window7d)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "a", stored[0].ItemID)
}

func TestRanker_EmptyReportClearsSet(t *testing.T) {
	store := memory.NewMomentumStore()
	ranker := NewRanker(store, DefaultCutoff, nil)
	ctx := context.Background()

	full := &growth.Report{Window: domain.Window3d, Results: []*domain.GrowthResult{result("a", 1, 100)}}
	_, err := ranker.Publish(ctx, full, "2024-03-10")
	require.NoError(t, err)

	_, err = ranker.Publish(ctx, &growth.Report{Window: domain.Window3d}, "2024-03-10")
	require.NoError(t, err)

	stored, _ := store.Get(ctx, "2024-03-10", domain.Window3d)
	assert.Empty(t, stored)
}
