package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/config"
)

// newTestServer builds one server per test binary: metrics register on the
// default Prometheus registry.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	export := filepath.Join(dir, "steam.csv")
	require.NoError(t, os.WriteFile(export, []byte(
		"appid,name,followers,wishlists_est,publisher,release_date\n"+
			"100,Hollow Deep,1200,,Petal Works,Coming soon\n"), 0o644))

	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Pipeline.RetryAttempts = 1
	cfg.Collectors = map[string]config.Collector{"steam": {Kind: "csv", Path: export}}
	require.NoError(t, cfg.Validate())

	srv, err := NewServer(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServer(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.routes()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("status before any run", func(t *testing.T) {
		rec := get("/api/status")
		require.Equal(t, http.StatusOK, rec.Code)

		var status StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "running", status.Status)
		assert.Equal(t, "memory", status.Backend)
		assert.Equal(t, 0, status.PipelineRuns)
		assert.Equal(t, "0 0 6 * * *", status.Schedule)
	})

	t.Run("run updates status and runs endpoint", func(t *testing.T) {
		srv.runPipeline(context.Background())

		var status StatusResponse
		require.NoError(t, json.Unmarshal(get("/api/status").Body.Bytes(), &status))
		assert.Equal(t, 1, status.PipelineRuns)
		assert.NotEmpty(t, status.LastRunID)
		assert.Empty(t, status.LastRunError)

		rec := get("/api/runs/" + status.LastRunID)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health and metrics", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, get("/api/health").Code)

		rec := get("/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "wishlist_momentum_pipeline_runs_total")
	})
}
