package storage

import (
	"context"
	"sort"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// AppendResult reports whether Append stored a new entry.
type AppendResult int

const (
	// Created means the entry was not present and has been stored.
	Created AppendResult = iota + 1
	// Duplicate means an entry with the same (chat_id, message_id) already existed.
	Duplicate
)

func (r AppendResult) String() string {
	switch r {
	case Created:
		return "created"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// LedgerReader defines the interface for reading ledger data.
type LedgerReader interface {
	// LoadAll returns every stored entry ordered by timestamp ascending.
	LoadAll(ctx context.Context) ([]models.LedgerEntry, error)
}

// LedgerWriter defines the idempotent append operation.
type LedgerWriter interface {
	// Append stores the entry unless one with the same (chat_id, message_id)
	// exists, in which case it reports Duplicate. A duplicate is not an error.
	Append(ctx context.Context, entry models.LedgerEntry) (AppendResult, error)
}

// LedgerStore combines the reader and writer interfaces.
type LedgerStore interface {
	LedgerReader
	LedgerWriter
}

// SortEntries orders entries by timestamp, keeping insertion order for ties.
func SortEntries(entries []models.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
}
