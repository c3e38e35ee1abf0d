package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage/memory"
)

// clock returns a Now func that advances by one second per call.
func clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestRegistry() (*Registry, *memory.ItemStore) {
	items := memory.NewItemStore()
	return NewRegistry(Options{Items: items, Now: clock()}), items
}

func obs(platform domain.Platform, id, name, publisher string) domain.Observation {
	return domain.Observation{Platform: platform, ExternalID: id, DisplayName: name, Publisher: publisher}
}

func TestRegistry_ExactMatch(t *testing.T) {
	r, items := newTestRegistry()
	ctx := context.Background()

	first, err := r.Resolve(ctx, obs(domain.PlatformSteam, "620", "Cozy Florist", "Petal Works"))
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.False(t, first.PotentialDuplicate)

	second, err := r.Resolve(ctx, obs(domain.PlatformSteam, "620", "Cozy Florist (renamed)", ""))
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Item.ItemID, second.Item.ItemID)
	assert.Equal(t, "Cozy Florist", second.Item.DisplayName)

	all, _ := items.List(ctx)
	assert.Len(t, all, 1)
}

func TestRegistry_FlagsDemoAsPotentialDuplicate(t *testing.T) {
	r, items := newTestRegistry()
	ctx := context.Background()

	orig, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", "Petal Works"))
	require.NoError(t, err)

	demo, err := r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist Demo", "Petal Works"))
	require.NoError(t, err)
	assert.True(t, demo.IsNew)
	assert.True(t, demo.PotentialDuplicate)
	assert.Equal(t, orig.Item.ItemID, demo.MatchedItemID)

	stored, err := items.GetByExternalID(ctx, domain.PlatformSteam, "B")
	require.NoError(t, err)
	assert.True(t, stored.PotentialDuplicate)
	require.NotNil(t, stored.DuplicateOf)
	assert.Equal(t, orig.Item.ItemID, *stored.DuplicateOf)

	// Never merged: both items exist.
	all, _ := items.List(ctx)
	assert.Len(t, all, 2)
}

func TestRegistry_EmptyPublisherIsNotContradicting(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", "Petal Works"))
	require.NoError(t, err)

	res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist Demo", ""))
	require.NoError(t, err)
	assert.True(t, res.PotentialDuplicate)
}

func TestRegistry_ConflictingPublisherNotFlagged(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", "Petal Works"))
	require.NoError(t, err)

	res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist", "Other Studio"))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.False(t, res.PotentialDuplicate)
}

func TestRegistry_OtherPlatformNotCompared(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", ""))
	require.NoError(t, err)

	res, err := r.Resolve(ctx, obs(domain.PlatformItch, "A", "Cozy Florist", ""))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.False(t, res.PotentialDuplicate)
}

func TestRegistry_AmbiguousPrefersMostRecent(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", ""))
	require.NoError(t, err)
	newer, err := r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist Prologue", "Studio B"))
	require.NoError(t, err)

	res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "C", "Cozy Florist Demo", ""))
	require.NoError(t, err)
	assert.True(t, res.PotentialDuplicate)
	assert.Equal(t, newer.Item.ItemID, res.MatchedItemID)
}

func TestRegistry_CustomScorer(t *testing.T) {
	items := memory.NewItemStore()
	never := ScorerFunc(func(a, b string) float64 { return 0 })
	r := NewRegistry(Options{Items: items, Scorer: never})
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", ""))
	require.NoError(t, err)
	res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist", ""))
	require.NoError(t, err)
	assert.False(t, res.PotentialDuplicate)
}

func TestRegistry_InvalidObservation(t *testing.T) {
	r, _ := newTestRegistry()

	_, err := r.Resolve(context.Background(), obs("gog", "A", "X", ""))
	assert.ErrorIs(t, err, ErrInvalidObservation)

	_, err = r.Resolve(context.Background(), obs(domain.PlatformSteam, "", "X", ""))
	assert.ErrorIs(t, err, ErrInvalidObservation)
}

func TestRegistry_ReleaseDateRefreshed(t *testing.T) {
	r, items := newTestRegistry()
	ctx := context.Background()

	o := obs(domain.PlatformSteam, "A", "Cozy Florist", "")
	o.ReleaseDateRaw = "Coming soon"
	_, err := r.Resolve(ctx, o)
	require.NoError(t, err)

	o.ReleaseDateRaw = "Oct 2026"
	res, err := r.Resolve(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, "Oct 2026", res.Item.ReleaseDateRaw)

	stored, _ := items.GetByExternalID(ctx, domain.PlatformSteam, "A")
	assert.Equal(t, "Oct 2026", stored.ReleaseDateRaw)
}

func TestRegistry_ConcurrentResolveCreatesOneItem(t *testing.T) {
	r, items := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "620", "Cozy Florist", ""))
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			if res.IsNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	all, _ := items.List(ctx)
	assert.Len(t, all, 1)
}

func TestRegistry_WarmsFromStore(t *testing.T) {
	items := memory.NewItemStore()
	ctx := context.Background()

	first := NewRegistry(Options{Items: items, Now: clock()})
	orig, err := first.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florist", ""))
	require.NoError(t, err)

	// A fresh registry sees items created by an earlier run.
	second := NewRegistry(Options{Items: items, Now: clock()})
	res, err := second.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist Demo", ""))
	require.NoError(t, err)
	assert.True(t, res.PotentialDuplicate)
	assert.Equal(t, orig.Item.ItemID, res.MatchedItemID)
}

func TestRegistry_SeesItemsFromAnotherRegistry(t *testing.T) {
	items := memory.NewItemStore()
	ctx := context.Background()
	now := clock()

	a := NewRegistry(Options{Items: items, Now: now})
	b := NewRegistry(Options{Items: items, Now: now})

	// a loads its index before b writes anything.
	_, err := a.Resolve(ctx, obs(domain.PlatformSteam, "1", "Space Miner", ""))
	require.NoError(t, err)

	orig, err := b.Resolve(ctx, obs(domain.PlatformSteam, "2", "Cozy Florist", ""))
	require.NoError(t, err)

	res, err := a.Resolve(ctx, obs(domain.PlatformSteam, "3", "Cozy Florist Demo", ""))
	require.NoError(t, err)
	assert.True(t, res.PotentialDuplicate)
	assert.Equal(t, orig.Item.ItemID, res.MatchedItemID)
}

func TestRegistry_TopMatchPublisherConflictNotFlagged(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	_, err := r.Resolve(ctx, obs(domain.PlatformSteam, "A", "Cozy Florists", "Petal Works"))
	require.NoError(t, err)
	_, err = r.Resolve(ctx, obs(domain.PlatformSteam, "B", "Cozy Florist", "Other Studio"))
	require.NoError(t, err)

	// The exact-name item is the top match but its publisher contradicts;
	// the weaker consistent candidate is not used instead.
	res, err := r.Resolve(ctx, obs(domain.PlatformSteam, "C", "Cozy Florist Demo", "Petal Works"))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.False(t, res.PotentialDuplicate)
}

func TestRegistry_DistinctNamesNotFlagged(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	for i, name := range []string{"Cozy Florist", "Space Miner", "Dungeon Baker", "Tiny Harbor"} {
		res, err := r.Resolve(ctx, obs(domain.PlatformSteam, fmt.Sprint(i), name, ""))
		require.NoError(t, err)
		assert.False(t, res.PotentialDuplicate, name)
	}
}
