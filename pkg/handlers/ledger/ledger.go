package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store  storage.LedgerReader
	Logger *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store storage.LedgerReader, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{Store: store, Logger: logger}
}

// ListLedgerEntries returns the ledger in timestamp order. With ?limit=n only
// the n most recent entries are returned.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("Invalid limit: %q", raw), http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.Store.LoadAll(r.Context())
	if err != nil {
		h.Logger.Error("failed to retrieve ledger entries", zap.Error(err))
		http.Error(w, "Failed to retrieve ledger entries", http.StatusInternalServerError)
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
