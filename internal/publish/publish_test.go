package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/domain"
)

func testBatch() *Batch {
	return &Batch{
		RunID:    "run-1",
		AsOfDate: "2025-10-13",
		Window:   domain.Window7d,
		Records: []*domain.MomentumRecord{
			{AsOfDate: "2025-10-13", Window: domain.Window7d, ItemID: "a", Platform: domain.PlatformSteam,
				ExternalID: "10", DisplayName: "Cozy Florist", BaselineValue: 100, LatestValue: 130,
				Delta: 30, DeltaPerDay: 10, DeltaRate: 0.3, Percentile: 100, Rank: 1},
		},
	}
}

type fakePublisher struct {
	name    string
	err     error
	batches []*Batch
	closed  bool
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(_ context.Context, b *Batch) error {
	f.batches = append(f.batches, b)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestEncode(t *testing.T) {
	data, err := Encode(testBatch())
	require.NoError(t, err)

	var decoded struct {
		AsOfDate string `json:"as_of_date"`
		Window   string `json:"window"`
		Count    int    `json:"count"`
		Records  []struct {
			ItemID      string  `json:"item_id"`
			Rank        int     `json:"rank"`
			DeltaPerDay float64 `json:"delta_per_day"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2025-10-13", decoded.AsOfDate)
	assert.Equal(t, "7d", decoded.Window)
	assert.Equal(t, 1, decoded.Count)
	require.Len(t, decoded.Records, 1)
	assert.Equal(t, "a", decoded.Records[0].ItemID)
	assert.Equal(t, 1, decoded.Records[0].Rank)
	assert.Equal(t, 10.0, decoded.Records[0].DeltaPerDay)
}

func TestEncode_EmptySetHasEmptyArray(t *testing.T) {
	b := testBatch()
	b.Records = nil

	data, err := Encode(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records":[]`)
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	failing := &fakePublisher{name: "redis", err: errors.New("connection refused")}
	ok := &fakePublisher{name: "kafka"}
	m := Multi{failing, ok}

	err := m.Publish(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Len(t, ok.batches, 1, "second sink still receives the batch")

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)
}

func TestMessage(t *testing.T) {
	msg, err := Message(testBatch())
	require.NoError(t, err)

	assert.Equal(t, []byte("7d"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "as_of_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2025-10-13"), msg.Headers[0].Value)

	body, err := Encode(testBatch())
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(msg.Value))
}
