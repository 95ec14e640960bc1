package storage

import "context"

// ApiStore defines the read-only operations needed by the ops HTTP API.
// It never exposes Append or session writes, so the API cannot mutate the ledger.
type ApiStore interface {
	LedgerReader

	// GetOffset is used by the health check.
	GetOffset(ctx context.Context) (int64, error)
}
