// Package ingest runs the long-poll loop that feeds updates to the router
// and records the offset after every handled update.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

//go:generate mockery --name Transport --output ./mocks --outpkg mocks

// Transport is the chat service the loop polls and replies through.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]models.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, kb *models.Keyboard) error
}

//go:generate mockery --name Handler --output ./mocks --outpkg mocks

// Handler processes a single message.
type Handler interface {
	Route(ctx context.Context, msg models.Message) error
}

// Options tunes polling and retry.
type Options struct {
	PollTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions polls for 5 seconds and backs off up to one minute.
func DefaultOptions() Options {
	return Options{
		PollTimeout:    5 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

// PanicError wraps a value recovered from a handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Loop is the single consumer of the update stream.
type Loop struct {
	transport Transport
	handler   Handler
	offsets   storage.OffsetStore
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func New(transport Transport, handler Handler, offsets storage.OffsetStore, opts Options, m *metrics.Metrics, logger *zap.Logger) *Loop {
	defaults := DefaultOptions()
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaults.PollTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaults.InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = max(defaults.MaxBackoff, opts.InitialBackoff)
	}

	return &Loop{
		transport: transport,
		handler:   handler,
		offsets:   offsets,
		opts:      opts,
		metrics:   m,
		logger:    logger.With(zap.String("component", "ingest")),
	}
}

// Run polls until ctx is cancelled, which is a clean stop and returns nil.
// Only a failure to read the initial offset is returned as an error.
func (l *Loop) Run(ctx context.Context) error {
	offset, err := l.offsets.GetOffset(ctx)
	if err != nil {
		return fmt.Errorf("failed to load update offset: %w", err)
	}
	l.logger.Info("ingestion started", zap.Int64("offset", offset), zap.Duration("poll_timeout", l.opts.PollTimeout))

	for {
		updates, err := l.poll(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("ingestion stopped", zap.Int64("offset", offset))
				return nil
			}
			// The backoff has no elapsed-time limit, so this needs a cancelled ctx.
			return fmt.Errorf("failed to poll updates: %w", err)
		}

		for _, u := range updates {
			if u.ID <= offset {
				l.metrics.UpdatesProcessed.WithLabelValues(metrics.OutcomeSkipped).Inc()
				continue
			}
			if ctx.Err() != nil {
				l.logger.Info("ingestion stopped", zap.Int64("offset", offset))
				return nil
			}

			l.process(ctx, u)

			offset = u.ID
			if err := l.offsets.SaveOffset(context.WithoutCancel(ctx), offset); err != nil {
				l.logger.Error("failed to save update offset", zap.Int64("update_id", u.ID), zap.Error(err))
			}
		}
	}
}

// poll retries transport failures with exponential backoff until a batch
// arrives or ctx is cancelled.
func (l *Loop) poll(ctx context.Context, offset int64) ([]models.Update, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.opts.InitialBackoff
	bo.MaxInterval = l.opts.MaxBackoff
	bo.MaxElapsedTime = 0

	operation := func() ([]models.Update, error) {
		if err := ctx.Err(); err != nil {
			return nil, backoff.Permanent(err)
		}
		updates, err := l.transport.GetUpdates(ctx, offset+1, l.opts.PollTimeout)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return updates, err
	}

	notify := func(err error, wait time.Duration) {
		l.metrics.PollErrors.Inc()
		l.logger.Warn("polling failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	return backoff.RetryNotifyWithData(operation, backoff.WithContext(bo, ctx), notify)
}

func (l *Loop) process(ctx context.Context, u models.Update) {
	if u.Message == nil {
		l.logger.Debug("skipping update without message", zap.Int64("update_id", u.ID))
		l.metrics.UpdatesProcessed.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return
	}
	msg := *u.Message

	err := l.route(ctx, msg)
	if err == nil {
		l.metrics.UpdatesProcessed.WithLabelValues(metrics.OutcomeHandled).Inc()
		return
	}

	outcome := metrics.OutcomeFailed
	fields := []zap.Field{
		zap.Int64("update_id", u.ID),
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int64("user_id", msg.From.ID),
		zap.String("user", msg.From.DisplayName()),
		zap.Error(err),
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		outcome = metrics.OutcomePanic
		fields = append(fields, zap.ByteString("stack", panicErr.Stack))
	}
	l.metrics.UpdatesProcessed.WithLabelValues(outcome).Inc()
	l.logger.Error("failed to handle update", fields...)

	if sendErr := l.transport.SendMessage(ctx, msg.Chat.ID, "❌ Error inesperado: "+err.Error(), nil); sendErr != nil {
		l.logger.Warn("failed to notify user about error", zap.Int64("chat_id", msg.Chat.ID), zap.Error(sendErr))
	}
}

func (l *Loop) route(ctx context.Context, msg models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return l.handler.Route(ctx, msg)
}
