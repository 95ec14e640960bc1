// Package forwarder pushes newly created ledger entries to the external
// budgeting API. Forwarding is best-effort: it runs after the local append
// committed and its failures never reach the local store.
package forwarder

import (
	"context"
	"errors"
	"fmt"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

var (
	// ErrQueueFull is returned when the in-process buffer has no room left.
	ErrQueueFull = errors.New("forward queue is full")
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("forward queue is closed")
)

// Job is one entry waiting to be forwarded.
type Job struct {
	ImportedID string             `json:"imported_id"`
	Entry      models.LedgerEntry `json:"entry"`
}

// ImportedID is the idempotency token the budget API deduplicates on.
func ImportedID(chatID, messageID int64) string {
	return fmt.Sprintf("telegram:%d:%d", chatID, messageID)
}

// NewJob builds the job for an entry.
func NewJob(entry models.LedgerEntry) Job {
	return Job{ImportedID: ImportedID(entry.ChatID, entry.MessageID), Entry: entry}
}

//go:generate mockery --name Queue --output ./mocks --outpkg mocks

// Queue accepts entries for forwarding. Enqueue must not block on the
// budget API; callers only enqueue entries whose append returned Created.
type Queue interface {
	Enqueue(ctx context.Context, entry models.LedgerEntry) error
}

// Handler processes one job.
type Handler interface {
	Forward(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Forward(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// NopQueue discards entries. It is used when forwarding is not configured.
type NopQueue struct{}

func (NopQueue) Enqueue(context.Context, models.LedgerEntry) error {
	return nil
}
