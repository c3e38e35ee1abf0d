package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/idhash"
	"wishlist-momentum-lab/internal/storage"
)

// Defaults for Options.
const (
	DefaultThreshold = 0.85
	DefaultEpsilon   = 0.01
)

// refreshOverlap is how far behind the newest indexed created_at a refresh
// starts, so items from writers with a lagging clock are still picked up.
const refreshOverlap = time.Minute

// ErrInvalidObservation is returned for observations without a valid platform or external id.
var ErrInvalidObservation = errors.New("invalid observation")

// Resolution is the outcome of resolving one observation.
type Resolution struct {
	Item               *domain.Item
	IsNew              bool
	PotentialDuplicate bool
	MatchedItemID      string  // set when PotentialDuplicate
	Score              float64 // similarity of the match
}

// Options configures a Registry.
type Options struct {
	Items           storage.ItemStore
	Scorer          Scorer   // nil uses LevenshteinScorer
	Threshold       float64  // zero uses DefaultThreshold
	Epsilon         float64  // zero uses DefaultEpsilon
	VariantSuffixes []string // nil uses DefaultVariantSuffixes
	Logger          *zap.Logger
	Now             func() time.Time
}

type indexEntry struct {
	itemID     string
	normalized string
	publisher  string
	createdAt  int64
}

// platformIndex caches normalized names of one platform's items.
// All access happens with mu held, which also serializes resolution per platform.
type platformIndex struct {
	mu       sync.Mutex
	loaded   bool
	entries  []indexEntry
	known    map[string]struct{} // item ids in entries
	lastSeen int64               // newest created_at in entries
}

func (idx *platformIndex) add(e indexEntry) {
	if _, ok := idx.known[e.itemID]; ok {
		return
	}
	idx.known[e.itemID] = struct{}{}
	idx.entries = append(idx.entries, e)
	if e.createdAt > idx.lastSeen {
		idx.lastSeen = e.createdAt
	}
}

// Registry maps observations to items, creating items on first sight and
// flagging likely duplicates of existing items. It never merges items.
type Registry struct {
	items      storage.ItemStore
	scorer     Scorer
	normalizer *Normalizer
	threshold  float64
	epsilon    float64
	logger     *zap.Logger
	now        func() time.Time

	platforms *xsync.Map[domain.Platform, *platformIndex]
}

// NewRegistry creates a registry over the given item store.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		items:      opts.Items,
		scorer:     opts.Scorer,
		normalizer: NewNormalizer(opts.VariantSuffixes),
		threshold:  opts.Threshold,
		epsilon:    opts.Epsilon,
		logger:     opts.Logger,
		now:        opts.Now,
		platforms:  xsync.NewMap[domain.Platform, *platformIndex](),
	}
	if r.scorer == nil {
		r.scorer = LevenshteinScorer{}
	}
	if r.threshold == 0 {
		r.threshold = DefaultThreshold
	}
	if r.epsilon == 0 {
		r.epsilon = DefaultEpsilon
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Resolve returns the item for an observation.
//
// An exact (platform, external_id) match returns the existing item. Otherwise a
// new item is created; when the top-scoring existing item of the same platform
// scores at or above the threshold and its publisher is consistent, the new
// item is flagged as a potential duplicate of that item.
func (r *Registry) Resolve(ctx context.Context, obs domain.Observation) (*Resolution, error) {
	if !obs.Platform.IsValid() || obs.ExternalID == "" {
		return nil, fmt.Errorf("%w: platform=%q external_id=%q", ErrInvalidObservation, obs.Platform, obs.ExternalID)
	}

	idx, _ := r.platforms.LoadOrStore(obs.Platform, &platformIndex{})
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing, err := r.items.GetByExternalID(ctx, obs.Platform, obs.ExternalID)
	if err == nil {
		return r.exact(ctx, existing, obs)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup item: %w", err)
	}

	if err := r.refresh(ctx, obs.Platform, idx); err != nil {
		return nil, err
	}

	normalized := r.normalizer.Normalize(obs.DisplayName)
	publisher := NormalizePublisher(obs.Publisher)

	item := &domain.Item{
		ItemID:         idhash.ComputeItemID(obs.Platform, obs.ExternalID),
		Platform:       obs.Platform,
		ExternalID:     obs.ExternalID,
		DisplayName:    obs.DisplayName,
		Publisher:      obs.Publisher,
		ReleaseDateRaw: obs.ReleaseDateRaw,
		CreatedAt:      r.now().UnixMilli(),
	}

	match, score := r.bestMatch(idx.entries, normalized, publisher)
	if match != nil {
		ref := match.itemID
		item.PotentialDuplicate = true
		item.DuplicateOf = &ref
	}

	if err := r.items.Insert(ctx, item); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Another writer created it first.
			existing, getErr := r.items.GetByExternalID(ctx, obs.Platform, obs.ExternalID)
			if getErr != nil {
				return nil, fmt.Errorf("lookup item after conflict: %w", getErr)
			}
			return r.exact(ctx, existing, obs)
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}

	idx.add(indexEntry{
		itemID:     item.ItemID,
		normalized: normalized,
		publisher:  publisher,
		createdAt:  item.CreatedAt,
	})

	res := &Resolution{Item: item, IsNew: true}
	if match != nil {
		res.PotentialDuplicate = true
		res.MatchedItemID = match.itemID
		res.Score = score
		r.logger.Info("potential duplicate flagged",
			zap.String("platform", obs.Platform.String()),
			zap.String("external_id", obs.ExternalID),
			zap.String("display_name", obs.DisplayName),
			zap.String("duplicate_of", match.itemID),
			zap.Float64("score", score),
		)
	}
	return res, nil
}

// exact handles an existing item, refreshing release metadata when it changed.
func (r *Registry) exact(ctx context.Context, item *domain.Item, obs domain.Observation) (*Resolution, error) {
	if obs.ReleaseDateRaw != "" && obs.ReleaseDateRaw != item.ReleaseDateRaw {
		if err := r.items.UpdateReleaseDate(ctx, item.ItemID, obs.ReleaseDateRaw); err != nil {
			return nil, fmt.Errorf("update release date: %w", err)
		}
		item.ReleaseDateRaw = obs.ReleaseDateRaw
	}
	return &Resolution{Item: item}, nil
}

// refresh brings the platform index up to date with the store. The first
// call loads every item; later calls fetch only items created since the
// newest one indexed, which picks up writes from other processes.
func (r *Registry) refresh(ctx context.Context, platform domain.Platform, idx *platformIndex) error {
	var items []*domain.Item
	var err error
	if idx.loaded {
		items, err = r.items.ListByPlatformSince(ctx, platform, idx.lastSeen-refreshOverlap.Milliseconds())
	} else {
		items, err = r.items.ListByPlatform(ctx, platform)
	}
	if err != nil {
		return fmt.Errorf("list items for %s: %w", platform, err)
	}

	if !idx.loaded {
		idx.entries = make([]indexEntry, 0, len(items))
		idx.known = make(map[string]struct{}, len(items))
		idx.loaded = true
	}
	for _, it := range items {
		idx.add(indexEntry{
			itemID:     it.ItemID,
			normalized: r.normalizer.Normalize(it.DisplayName),
			publisher:  NormalizePublisher(it.Publisher),
			createdAt:  it.CreatedAt,
		})
	}
	return nil
}

// bestMatch returns the candidate to flag against, or nil.
// Candidates within epsilon of the top score are treated as a tie and the
// most recently created one wins. The winner is flagged only when its
// publisher does not contradict the observation's.
func (r *Registry) bestMatch(entries []indexEntry, normalized, publisher string) (*indexEntry, float64) {
	if normalized == "" {
		return nil, 0
	}

	type scored struct {
		entry *indexEntry
		score float64
	}
	var candidates []scored
	top := 0.0
	for i := range entries {
		e := &entries[i]
		s := r.scorer.Similarity(normalized, e.normalized)
		if s < r.threshold {
			continue
		}
		candidates = append(candidates, scored{e, s})
		if s > top {
			top = s
		}
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	var best *scored
	for i := range candidates {
		c := &candidates[i]
		if top-c.score > r.epsilon {
			continue
		}
		if best == nil ||
			c.entry.createdAt > best.entry.createdAt ||
			(c.entry.createdAt == best.entry.createdAt && c.entry.itemID < best.entry.itemID) {
			best = c
		}
	}
	if !publishersConsistent(publisher, best.entry.publisher) {
		return nil, 0
	}
	return best.entry, best.score
}

// publishersConsistent treats an unknown publisher on either side as non-contradicting.
func publishersConsistent(a, b string) bool {
	return a == "" || b == "" || a == b
}
