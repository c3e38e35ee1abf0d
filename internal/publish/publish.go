// Package publish fans ranked momentum sets out to downstream consumers.
// Publishing is best-effort: the stored momentum set stays authoritative.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/view"
)

// Batch is one published momentum set.
type Batch struct {
	RunID    string
	AsOfDate string
	Window   domain.Window
	Records  []*domain.MomentumRecord
}

// Publisher delivers batches to one sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, b *Batch) error
	Close() error
}

// payload is the wire form of a batch.
type payload struct {
	RunID    string          `json:"run_id"`
	AsOfDate string          `json:"as_of_date"`
	Window   string          `json:"window"`
	Count    int             `json:"count"`
	Records  []view.Momentum `json:"records"`
}

// Encode returns the JSON body of a batch.
func Encode(b *Batch) ([]byte, error) {
	data, err := json.Marshal(payload{
		RunID:    b.RunID,
		AsOfDate: b.AsOfDate,
		Window:   b.Window.String(),
		Count:    len(b.Records),
		Records:  view.FromMomentumList(b.Records),
	})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return data, nil
}

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

// Name returns "multi".
func (m Multi) Name() string { return "multi" }

// Publish delivers b to every sink, continuing past failures.
func (m Multi) Publish(ctx context.Context, b *Batch) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
