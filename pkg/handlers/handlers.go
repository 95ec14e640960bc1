package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/export"
	"github.com/David-Schmidt02/gastos-bot/pkg/handlers/ledger"
	"github.com/David-Schmidt02/gastos-bot/pkg/middleware"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

// ApiHandler serves the read-only operations endpoints.
type ApiHandler struct {
	Store  storage.ApiStore
	Logger *zap.Logger
}

// NewApiHandler creates a new ApiHandler with a storage dependency.
func NewApiHandler(store storage.ApiStore, logger *zap.Logger) *ApiHandler {
	return &ApiHandler{Store: store, Logger: logger}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Offset int64  `json:"offset"`
}

// Health reports whether the store is reachable, along with the last
// processed update id. Store errors are logged, never returned.
func (h *ApiHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	offset, err := h.Store.GetOffset(r.Context())
	if err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		resp = HealthResponse{Status: "unavailable"}
		status = http.StatusServiceUnavailable
	} else {
		resp.Offset = offset
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ExportCSV streams the ledger in the Actual Budget CSV import format.
func (h *ApiHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.LoadAll(r.Context())
	if err != nil {
		h.Logger.Error("failed to retrieve ledger entries", zap.Error(err))
		http.Error(w, "Failed to retrieve ledger entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="import_actual.csv"`)
	w.WriteHeader(http.StatusOK)
	// Headers are already sent; a failure here can only truncate the body.
	_ = export.WriteCSV(w, entries)
}

// NewRouter mounts the operations API on a chi router.
func NewRouter(store storage.ApiStore, gatherer prometheus.Gatherer, logger *zap.Logger) chi.Router {
	h := NewApiHandler(store, logger)
	lh := ledger.NewLedgerHandler(store, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))

	router.Get("/healthz", h.Health)
	router.Get("/entries", lh.ListLedgerEntries)
	router.Get("/export.csv", h.ExportCSV)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return router
}
