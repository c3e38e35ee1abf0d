package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/app"
	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/domain"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seed writes a config over a fresh SQLite file holding one ranked item.
func seed(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.ToSlash(filepath.Join(dir, "momentum.db"))

	backend, err := app.OpenBackend(ctx, config.Storage{Backend: "sqlite", SQLitePath: dbPath}, nil)
	require.NoError(t, err)
	stores := backend.Stores

	require.NoError(t, stores.Items.Insert(ctx, &domain.Item{
		ItemID: "item-1", Platform: domain.PlatformSteam, ExternalID: "100", DisplayName: "Hollow, Deep", CreatedAt: 1,
	}))
	v0, v1 := int64(100), int64(130)
	require.NoError(t, stores.Snapshots.Record(ctx, &domain.Snapshot{ItemID: "item-1", RunID: "run-a", MetricValue: &v0, ObservedAt: 1760076000000}))
	require.NoError(t, stores.Snapshots.Record(ctx, &domain.Snapshot{ItemID: "item-1", RunID: "run-b", ObservedAt: 1760162400000}))
	require.NoError(t, stores.Snapshots.Record(ctx, &domain.Snapshot{ItemID: "item-1", RunID: "run-c", MetricValue: &v1, ObservedAt: 1760335200000}))
	require.NoError(t, stores.Momentum.Replace(ctx, "2025-10-13", domain.Window3d, []*domain.MomentumRecord{{
		AsOfDate: "2025-10-13", Window: domain.Window3d, ItemID: "item-1", Platform: domain.PlatformSteam,
		ExternalID: "100", DisplayName: "Hollow, Deep", BaselineValue: 100, LatestValue: 130,
		Delta: 30, DeltaPerDay: 10, DeltaRate: 0.3, Percentile: 100, Rank: 1,
	}}))
	completed := int64(5000)
	require.NoError(t, stores.Runs.Insert(ctx, &domain.Run{
		RunID: "run-c", AsOfDate: "2025-10-13", StartedAt: 1000, CompletedAt: &completed,
		Status: domain.RunStatusCompleted, Summary: &domain.RunSummary{ItemsProcessed: 1},
	}))
	require.NoError(t, backend.Close())

	path := filepath.Join(dir, "momentum.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "sqlite"
sqlite_path = "`+dbPath+`"

[growth]
windows = ["3d", "7d"]

`), 0o644))
	return path
}

func TestMomentumTable(t *testing.T) {
	cfg := seed(t)

	out, err := executeCommand(t, "--config", cfg, "momentum", "--as-of", "2025-10-14")
	require.NoError(t, err)
	assert.Contains(t, out, "Window 3d as of 2025-10-13 (requested 2025-10-14)")
	assert.Contains(t, out, "Hollow, Deep")
	assert.Contains(t, out, "30.0%")
	assert.Contains(t, out, "Window 7d: no momentum computed")
}

func TestMomentumCSVToFile(t *testing.T) {
	cfg := seed(t)
	target := filepath.Join(t.TempDir(), "momentum.csv")

	_, err := executeCommand(t, "--config", cfg, "momentum", "-w", "3d", "-f", "csv", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "as_of_date,window,rank"))
	assert.Contains(t, lines[1], `"Hollow, Deep"`)
}

func TestMomentumMarkdownAndBadFormat(t *testing.T) {
	cfg := seed(t)

	out, err := executeCommand(t, "--config", cfg, "momentum", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Momentum Report")
	assert.Contains(t, out, "| Run ID | run-c |")

	_, err = executeCommand(t, "--config", cfg, "momentum", "-f", "xml")
	assert.Error(t, err)

	_, err = executeCommand(t, "--config", cfg, "momentum", "-w", "2d")
	assert.ErrorIs(t, err, domain.ErrUnknownWindow)
}

func TestHistory(t *testing.T) {
	cfg := seed(t)

	out, err := executeCommand(t, "--config", cfg, "history", "item-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Hollow, Deep (steam 100)")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "130")

	out, err = executeCommand(t, "--config", cfg, "history", "--platform", "steam", "--external-id", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Item ID: item-1")

	_, err = executeCommand(t, "--config", cfg, "history")
	assert.Error(t, err)
}

func TestRuns(t *testing.T) {
	cfg := seed(t)

	out, err := executeCommand(t, "--config", cfg, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "run-c")
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "4s")
}
