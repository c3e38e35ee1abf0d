package idhash

import (
	"testing"

	"github.com/google/uuid"

	"wishlist-momentum-lab/internal/domain"
)

func TestComputeItemID(t *testing.T) {
	tests := []struct {
		name       string
		platform   domain.Platform
		externalID string
	}{
		{name: "steam app", platform: domain.PlatformSteam, externalID: "1145360"},
		{name: "itch slug", platform: domain.PlatformItch, externalID: "studio/cozy-florist"},
		{name: "empty id", platform: domain.PlatformEpic, externalID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeItemID(tt.platform, tt.externalID)
			if len(got) != 64 {
				t.Errorf("hash length = %d, want 64", len(got))
			}
			if again := ComputeItemID(tt.platform, tt.externalID); again != got {
				t.Errorf("non-deterministic: %s != %s", got, again)
			}
		})
	}
}

func TestComputeItemID_PlatformScoped(t *testing.T) {
	steam := ComputeItemID(domain.PlatformSteam, "620")
	itch := ComputeItemID(domain.PlatformItch, "620")
	if steam == itch {
		t.Error("same external id on different platforms must hash differently")
	}
}

func TestComputeRunID(t *testing.T) {
	a := ComputeRunID("2024-03-10", "daily")
	b := ComputeRunID("2024-03-10", "daily")
	c := ComputeRunID("2024-03-11", "daily")

	if a != b {
		t.Errorf("same batch should yield same run id: %s != %s", a, b)
	}
	if a == c {
		t.Error("different dates should yield different run ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("run id is not a uuid: %v", err)
	}
}
