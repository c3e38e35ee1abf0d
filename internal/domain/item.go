package domain

// Item is one tracked entity on one platform.
// Corresponds to the items table.
type Item struct {
	ItemID             string   // PRIMARY KEY, deterministic hash of platform|external_id
	Platform           Platform // source platform
	ExternalID         string   // platform-native identifier
	DisplayName        string   // name as first observed
	Publisher          string   // empty when unknown
	ReleaseDateRaw     string   // latest upstream release string, metadata only
	PotentialDuplicate bool     // fuzzy match against an existing item at creation
	DuplicateOf        *string  // item_id of the matched item (nullable)
	CreatedAt          int64    // record creation timestamp (ms)
}

// Observation is one raw record yielded by a collector for the current run.
type Observation struct {
	Platform       Platform
	ExternalID     string
	DisplayName    string
	Publisher      string
	ReleaseDateRaw string
	Followers      *int64 // nil when the source did not report it
	WishlistsEst   *int64 // nil when the source did not report it
}

// MetricValue returns the primary metric for the observation: followers when
// reported, otherwise the wishlist estimate. Nil means unknown.
func (o Observation) MetricValue() *int64 {
	if o.Followers != nil {
		v := *o.Followers
		return &v
	}
	if o.WishlistsEst != nil {
		v := *o.WishlistsEst
		return &v
	}
	return nil
}
