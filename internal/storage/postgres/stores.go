package postgres

import "wishlist-momentum-lab/internal/storage"

// NewStores creates the full set of PostgreSQL stores sharing pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		Items:     NewItemStore(pool),
		Snapshots: NewSnapshotStore(pool),
		Momentum:  NewMomentumStore(pool),
		Runs:      NewRunStore(pool),
	}
}
