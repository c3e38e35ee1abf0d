package memory

import "wishlist-momentum-lab/internal/storage"

// NewStores creates a full set of in-memory stores.
func NewStores() storage.Stores {
	return storage.Stores{
		Items:     NewItemStore(),
		Snapshots: NewSnapshotStore(),
		Momentum:  NewMomentumStore(),
		Runs:      NewRunStore(),
	}
}
