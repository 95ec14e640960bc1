package forwarder

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// Dispatcher is an in-process Queue: a bounded buffer drained by a fixed
// pool of workers.
type Dispatcher struct {
	handler Handler
	jobs    chan Job
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// ctx is handed to the handler; cancelling it abandons in-flight work.
	ctx    context.Context
	cancel context.CancelFunc
}

// Make sure we conform to the interface
var _ Queue = (*Dispatcher)(nil)

// NewDispatcher starts workers goroutines reading from a buffer of the given size.
func NewDispatcher(handler Handler, workers, buffer int, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handler: handler,
		jobs:    make(chan Job, buffer),
		metrics: m,
		logger:  logger.With(zap.String("component", "dispatcher")),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue never blocks: a full buffer drops the job and returns ErrQueueFull.
func (d *Dispatcher) Enqueue(_ context.Context, entry models.LedgerEntry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.jobs <- NewJob(entry):
		return nil
	default:
		d.metrics.ForwardsTotal.WithLabelValues(metrics.ForwardDropped).Inc()
		return ErrQueueFull
	}
}

// Close stops intake and waits for the workers to drain the buffer. When ctx
// expires first, in-flight calls are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for job := range d.jobs {
		if d.ctx.Err() != nil {
			d.logger.Warn("abandoning forward job", zap.String("imported_id", job.ImportedID))
			continue
		}
		if err := d.forward(job); err != nil {
			d.logger.Error("failed to forward entry", zap.String("imported_id", job.ImportedID), zap.Error(err))
		}
	}
}

// forward shields the worker from a panicking handler.
func (d *Dispatcher) forward(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while forwarding entry", zap.String("imported_id", job.ImportedID), zap.Any("panic", r))
			err = nil
		}
	}()
	return d.handler.Forward(d.ctx, job)
}
