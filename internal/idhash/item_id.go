package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
)

// ComputeItemID computes a deterministic item_id using SHA256.
// Formula: SHA256(platform|external_id)
// Returns hex-encoded hash (64 characters).
func ComputeItemID(platform domain.Platform, externalID string) string {
	data := fmt.Sprintf("%s|%s", string(platform), externalID)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
