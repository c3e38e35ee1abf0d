package memory

import (
	"context"
	"errors"
	"testing"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

func TestRunStore_Lifecycle(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{RunID: "run1", AsOfDate: "2024-03-10", AsOf: 1710064800000, StartedAt: 1000, Status: domain.RunStatusRunning}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	summary := &domain.RunSummary{ItemsProcessed: 10, NewItems: 3, PlatformsFailed: []string{"itch"}}
	if err := store.Complete(ctx, "run1", domain.RunStatusCompleted, 2000, summary); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusCompleted || got.CompletedAt == nil || *got.CompletedAt != 2000 {
		t.Errorf("Unexpected run state: %+v", got)
	}
	if got.AsOf != 1710064800000 {
		t.Errorf("AsOf = %d, want 1710064800000", got.AsOf)
	}
	if got.Summary == nil || got.Summary.ItemsProcessed != 10 {
		t.Errorf("Summary not stored")
	}

	if err := store.Complete(ctx, "missing", domain.RunStatusFailed, 1, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.Run{RunID: "old", StartedAt: 1000})
	_ = store.Insert(ctx, &domain.Run{RunID: "new", StartedAt: 3000})
	_ = store.Insert(ctx, &domain.Run{RunID: "mid", StartedAt: 2000})

	runs, _ := store.List(ctx, 2)
	if len(runs) != 2 || runs[0].RunID != "new" || runs[1].RunID != "mid" {
		t.Errorf("Unexpected order")
	}
}
