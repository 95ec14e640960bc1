package forwarder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
	"github.com/David-Schmidt02/gastos-bot/pkg/mapping"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
)

//go:generate mockery --name Importer --output ./mocks --outpkg mocks

// Importer is the budget API surface the forwarder needs.
type Importer interface {
	ImportTransactions(ctx context.Context, txs []budget.Transaction) (*budget.ImportResult, error)
	AccountID() string
}

// Forwarder maps jobs to budget transactions and imports them.
type Forwarder struct {
	importer Importer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Make sure we conform to the interface
var _ Handler = (*Forwarder)(nil)

func New(importer Importer, m *metrics.Metrics, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		importer: importer,
		metrics:  m,
		logger:   logger.With(zap.String("component", "forwarder")),
	}
}

// Forward imports one entry. The budget API deduplicates on the imported id,
// so forwarding the same job twice creates at most one transaction.
func (f *Forwarder) Forward(ctx context.Context, job Job) error {
	tx, err := mapping.ToBudgetTransaction(job.Entry, f.importer.AccountID(), job.ImportedID)
	if err != nil {
		f.metrics.ForwardsTotal.WithLabelValues(metrics.ForwardFailed).Inc()
		return err
	}

	start := time.Now()
	result, err := f.importer.ImportTransactions(ctx, []budget.Transaction{tx})
	f.metrics.ForwardDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.ForwardsTotal.WithLabelValues(metrics.ForwardFailed).Inc()
		return fmt.Errorf("failed to import %s: %w", job.ImportedID, err)
	}

	f.metrics.ForwardsTotal.WithLabelValues(metrics.ForwardOK).Inc()
	if len(result.Added) == 0 {
		f.logger.Info("entry already present in budget", zap.String("imported_id", job.ImportedID))
		return nil
	}

	f.logger.Info("entry forwarded to budget",
		zap.String("imported_id", job.ImportedID),
		zap.Int64("amount", job.Entry.Amount),
		zap.String("category", job.Entry.Category))
	return nil
}
