package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/orchestrator"
	"wishlist-momentum-lab/internal/storage/memory"
)

func writeExport(t *testing.T, path string, rows ...string) {
	t.Helper()
	content := "appid,name,followers,wishlists_est,publisher,release_date\n"
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T, exportPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Growth.Windows = []string{"3d"}
	cfg.Growth.UnreleasedOnly = false
	cfg.Pipeline.Platforms = []string{"steam"}
	cfg.Pipeline.RetryAttempts = 1
	cfg.Collectors = map[string]config.Collector{
		"steam": {Kind: "csv", Path: exportPath},
	}
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestPipelineFromConfig(t *testing.T) {
	ctx := context.Background()
	export := filepath.Join(t.TempDir(), "steam.csv")
	cfg := testConfig(t, export)

	backend, err := OpenBackend(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	defer backend.Close()
	require.NoError(t, backend.Ping(ctx))

	pub, err := NewPublisher(ctx, cfg.Publish, nil)
	require.NoError(t, err)
	assert.Nil(t, pub)

	orch, err := NewOrchestrator(cfg, backend.Stores, pub, nil, nil)
	require.NoError(t, err)

	day0 := time.Date(2025, 10, 10, 6, 0, 0, 0, time.UTC)

	writeExport(t, export, "100,Hollow Deep,100,,Petal Works,Coming soon")
	_, err = orch.Run(ctx, orchestrator.RunRequest{AsOf: day0})
	require.NoError(t, err)

	writeExport(t, export, "100,Hollow Deep,130,,Petal Works,Coming soon")
	summary, err := orch.Run(ctx, orchestrator.RunRequest{AsOf: day0.Add(72 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsProcessed)
	assert.Empty(t, summary.CollectionErrors)

	records, err := backend.Stores.Momentum.Get(ctx, "2025-10-13", domain.Window3d)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(30), records[0].Delta)
	assert.InDelta(t, 10.0, records[0].DeltaPerDay, 1e-9)
	assert.Equal(t, "Hollow Deep", records[0].DisplayName)
}

func TestOpenBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Storage{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "m.db")}

	backend, err := OpenBackend(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, backend.Ping(ctx))
	assert.Equal(t, "sqlite", backend.Kind)

	require.NoError(t, backend.Stores.Runs.Insert(ctx, &domain.Run{RunID: "r", AsOfDate: "2025-10-10", Status: domain.RunStatusRunning}))
	require.NoError(t, backend.Close())
	// Closing twice is harmless.
	require.NoError(t, backend.Close())
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.Storage{Backend: "mongo"}, nil)
	assert.Error(t, err)
}

func TestCollectors_DefaultExportPath(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Platforms = []string{"steam", "itch"}
	cfg.Collectors = map[string]config.Collector{"itch": {Kind: "static"}}

	cols, err := Collectors(&cfg, nil)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, domain.PlatformSteam, cols[0].Platform())
	assert.Equal(t, domain.PlatformItch, cols[1].Platform())

	// The steam export does not exist, which is a permanent failure.
	_, err = cols[0].Collect(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	obs, err := cols[1].Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestNewOrchestrator_UnknownScorer(t *testing.T) {
	cfg := config.Default()
	cfg.Identity.Scorer = "soundex"
	_, err := NewOrchestrator(&cfg, memory.NewStores(), nil, nil, nil)
	assert.Error(t, err)
}
