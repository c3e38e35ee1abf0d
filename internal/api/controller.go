// Package api exposes the query interface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/query"
	"wishlist-momentum-lab/internal/storage"
	"wishlist-momentum-lab/internal/view"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// Controller serves the query API.
type Controller struct {
	Query  *query.Service
	Runs   storage.RunStore
	Ping   func(ctx context.Context) error // nil means always healthy
	Logger *zap.Logger
}

// NewController returns a new controller.
func NewController(q *query.Service, runs storage.RunStore, ping func(ctx context.Context) error, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{Query: q, Runs: runs, Ping: ping, Logger: logger}
}

// WithCORS adds permissive CORS headers for read-only dashboards.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a router with every API route.
func (c *Controller) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", c.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/momentum/{window}", c.HandleMomentum).Methods(http.MethodGet)

	r.HandleFunc("/api/items/{id}/history", c.HandleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{platform}/{external_id}/history", c.HandleHistoryByExternalID).Methods(http.MethodGet)

	r.HandleFunc("/api/runs", c.HandleRunsList).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", c.HandleRunDetail).Methods(http.MethodGet)

	r.Use(WithCORS)
	return r
}

// HandleHealth reports whether storage is reachable.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if c.Ping != nil {
		if err := c.Ping(r.Context()); err != nil {
			c.Logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "storage unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type momentumResponse struct {
	Window        string          `json:"window"`
	RequestedDate string          `json:"requested_date,omitempty"`
	ServedDate    string          `json:"served_date"`
	Fallback      bool            `json:"fallback"`
	Count         int             `json:"count"`
	Records       []view.Momentum `json:"records"`
}

// HandleMomentum serves GET /api/momentum/{window}?as_of=YYYY-MM-DD.
func (c *Controller) HandleMomentum(w http.ResponseWriter, r *http.Request) {
	window := domain.Window(mux.Vars(r)["window"])

	var asOf *string
	if v := r.URL.Query().Get("as_of"); v != "" {
		asOf = &v
	}

	res, err := c.Query.Momentum(r.Context(), window, asOf)
	if err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, momentumResponse{
		Window:        res.Window.String(),
		RequestedDate: res.RequestedDate,
		ServedDate:    res.ServedDate,
		Fallback:      res.Fallback,
		Count:         len(res.Records),
		Records:       view.FromMomentumList(res.Records),
	})
}

type historyResponse struct {
	Item      view.Item       `json:"item"`
	Snapshots []view.Snapshot `json:"snapshots"`
}

// HandleHistory serves GET /api/items/{id}/history.
func (c *Controller) HandleHistory(w http.ResponseWriter, r *http.Request) {
	res, err := c.Query.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Item: view.FromItem(res.Item), Snapshots: view.FromSnapshots(res.Snapshots)})
}

// HandleHistoryByExternalID serves GET /api/items/{platform}/{external_id}/history.
func (c *Controller) HandleHistoryByExternalID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	platform, err := domain.ParsePlatform(vars["platform"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	res, err := c.Query.HistoryByExternalID(r.Context(), platform, vars["external_id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Item: view.FromItem(res.Item), Snapshots: view.FromSnapshots(res.Snapshots)})
}

type runResponse struct {
	RunID       string             `json:"run_id"`
	AsOfDate    string             `json:"as_of_date"`
	Status      string             `json:"status"`
	StartedAt   int64              `json:"started_at_ms"`
	CompletedAt *int64             `json:"completed_at_ms,omitempty"`
	Summary     *domain.RunSummary `json:"summary,omitempty"`
}

func toRunResponse(run *domain.Run) runResponse {
	return runResponse{
		RunID:       run.RunID,
		AsOfDate:    run.AsOfDate,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Summary:     run.Summary,
	}
}

// HandleRunsList serves GET /api/runs?limit=N.
func (c *Controller) HandleRunsList(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := c.Runs.List(r.Context(), limit)
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRunDetail serves GET /api/runs/{id}.
func (c *Controller) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	run, err := c.Runs.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (c *Controller) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, query.ErrNoMomentum):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownWindow), errors.Is(err, domain.ErrUnknownPlatform),
		errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		c.Logger.Error("query failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
