package growth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage/memory"
)

func seed(t *testing.T, items *memory.ItemStore, snaps *memory.SnapshotStore, id, release string, points map[int64]*int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, items.Insert(ctx, &domain.Item{
		ItemID:         id,
		Platform:       domain.PlatformSteam,
		ExternalID:     id,
		DisplayName:    id,
		ReleaseDateRaw: release,
	}))
	i := 0
	for at, v := range points {
		i++
		require.NoError(t, snaps.Record(ctx, &domain.Snapshot{
			ItemID:      id,
			RunID:       string(rune('a' + i)),
			MetricValue: v,
			ObservedAt:  at,
		}))
	}
}

func TestCalculator_Compute(t *testing.T) {
	items := memory.NewItemStore()
	snaps := memory.NewSnapshotStore()

	seed(t, items, snaps, "growing", "", map[int64]*int64{asOf - 3*day: val(100), asOf: val(130)})
	seed(t, items, snaps, "single", "", map[int64]*int64{asOf: val(1000)})
	seed(t, items, snaps, "released", "2020-01-01", map[int64]*int64{asOf - 3*day: val(100), asOf: val(500)})
	seed(t, items, snaps, "zero", "", map[int64]*int64{asOf - 3*day: val(0), asOf: val(500)})

	calc := NewCalculator(items, snaps, DefaultParams(), nil)
	eligible := func(item *domain.Item) bool { return item.ReleaseDateRaw == "" }

	report, err := calc.Compute(context.Background(), asOf, domain.Window3d, eligible)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, "growing", report.Results[0].ItemID)
	assert.Contains(t, report.Items, "growing")
	assert.Equal(t, 1, report.Omitted[ReasonIneligible])
	assert.Equal(t, 1, report.Omitted[ReasonInsufficientHistory])
	assert.Equal(t, 1, report.Omitted[ReasonZeroBaseline])
}

func TestCalculator_UnknownWindow(t *testing.T) {
	calc := NewCalculator(memory.NewItemStore(), memory.NewSnapshotStore(), DefaultParams(), nil)

	_, err := calc.Compute(context.Background(), asOf, domain.Window("2w"), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownWindow)
}
