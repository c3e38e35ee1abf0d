package memory

import (
	"context"
	"errors"
	"testing"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

func TestItemStore_InsertAndGet(t *testing.T) {
	store := NewItemStore()
	ctx := context.Background()

	item := &domain.Item{
		ItemID:      "item1",
		Platform:    domain.PlatformSteam,
		ExternalID:  "620",
		DisplayName: "Cozy Florist",
		Publisher:   "Petal Works",
		CreatedAt:   1704067200000,
	}

	if err := store.Insert(ctx, item); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "item1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DisplayName != item.DisplayName {
		t.Errorf("DisplayName mismatch: got %s, want %s", got.DisplayName, item.DisplayName)
	}

	got, err = store.GetByExternalID(ctx, domain.PlatformSteam, "620")
	if err != nil {
		t.Fatalf("GetByExternalID failed: %v", err)
	}
	if got.ItemID != "item1" {
		t.Errorf("ItemID mismatch: got %s", got.ItemID)
	}

	// Same external id on another platform is a different item.
	_, err = store.GetByExternalID(ctx, domain.PlatformItch, "620")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestItemStore_DuplicateKey(t *testing.T) {
	store := NewItemStore()
	ctx := context.Background()

	item := &domain.Item{ItemID: "item1", Platform: domain.PlatformSteam, ExternalID: "620"}
	if err := store.Insert(ctx, item); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Same (platform, external_id) under a different id
	err := store.Insert(ctx, &domain.Item{ItemID: "item2", Platform: domain.PlatformSteam, ExternalID: "620"})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	err = store.Insert(ctx, item)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestItemStore_ListByPlatformOrdered(t *testing.T) {
	store := NewItemStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.Item{ItemID: "b", Platform: domain.PlatformSteam, ExternalID: "2", CreatedAt: 200})
	_ = store.Insert(ctx, &domain.Item{ItemID: "a", Platform: domain.PlatformSteam, ExternalID: "1", CreatedAt: 100})
	_ = store.Insert(ctx, &domain.Item{ItemID: "c", Platform: domain.PlatformItch, ExternalID: "1", CreatedAt: 50})

	items, err := store.ListByPlatform(ctx, domain.PlatformSteam)
	if err != nil {
		t.Fatalf("ListByPlatform failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ItemID != "a" || items[1].ItemID != "b" {
		t.Errorf("Expected created_at ASC order, got %s, %s", items[0].ItemID, items[1].ItemID)
	}

	all, _ := store.List(ctx)
	if len(all) != 3 || all[0].ItemID != "c" {
		t.Errorf("Unexpected List result: %d items", len(all))
	}

	since, err := store.ListByPlatformSince(ctx, domain.PlatformSteam, 200)
	if err != nil {
		t.Fatalf("ListByPlatformSince failed: %v", err)
	}
	if len(since) != 1 || since[0].ItemID != "b" {
		t.Errorf("Expected only b at or after 200, got %d items", len(since))
	}
}

func TestItemStore_UpdateReleaseDate(t *testing.T) {
	store := NewItemStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.Item{ItemID: "a", Platform: domain.PlatformSteam, ExternalID: "1", ReleaseDateRaw: "TBA"})

	if err := store.UpdateReleaseDate(ctx, "a", "Q3 2026"); err != nil {
		t.Fatalf("UpdateReleaseDate failed: %v", err)
	}
	got, _ := store.GetByID(ctx, "a")
	if got.ReleaseDateRaw != "Q3 2026" {
		t.Errorf("ReleaseDateRaw mismatch: got %s", got.ReleaseDateRaw)
	}

	if err := store.UpdateReleaseDate(ctx, "missing", "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestItemStore_ReturnsCopies(t *testing.T) {
	store := NewItemStore()
	ctx := context.Background()

	ref := "orig"
	item := &domain.Item{ItemID: "a", Platform: domain.PlatformSteam, ExternalID: "1", DuplicateOf: &ref}
	_ = store.Insert(ctx, item)

	ref = "mutated"
	got, _ := store.GetByID(ctx, "a")
	if *got.DuplicateOf != "orig" {
		t.Errorf("Stored item was mutated externally: %s", *got.DuplicateOf)
	}
}
