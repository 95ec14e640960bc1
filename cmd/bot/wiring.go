package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
	"github.com/David-Schmidt02/gastos-bot/pkg/config"
	"github.com/David-Schmidt02/gastos-bot/pkg/forwarder"
	"github.com/David-Schmidt02/gastos-bot/pkg/lock"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
	dydbstore "github.com/David-Schmidt02/gastos-bot/pkg/storage/dynamodb"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage/file"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage/sqlstore"
)

// openStorage builds the configured backend. The returned func releases it.
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Storage, func(), error) {
	sc := cfg.Storage

	switch sc.Backend {
	case config.BackendFile:
		var (
			locker    lock.Locker = lock.Nop{}
			closeLock             = func() error { return nil }
		)
		if sc.LockRedisURL != "" {
			rl, closeFn, err := lock.NewRedisLockerFromURL(ctx, sc.LockRedisURL, logger)
			if err != nil {
				return nil, nil, err
			}
			locker, closeLock = rl, closeFn
			logger.Info("file store guarded by redis lock", zap.String("lock_key", file.LockKey))
		}

		store, err := file.New(sc.LedgerPath, sc.StatePath, locker)
		if err != nil {
			closeLock()
			return nil, nil, err
		}
		return store, func() { closeLock() }, nil

	case config.BackendSQL:
		store, err := sqlstore.Open(ctx, sc.DatabaseDriver, sc.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}, nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), sc.EntriesTable, sc.StateTable)
		return store, func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, sc.Backend)
}

// openQueue builds the forward queue. The returned func stops intake and
// waits for pending work until its context expires.
func openQueue(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (forwarder.Queue, func(context.Context) error, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.Forward.Queue {
	case config.QueueSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		return forwarder.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.Forward.SQSQueueURL), noClose, nil

	case config.QueueMemory:
		if !cfg.Budget.Enabled() {
			logger.Info("budget sync disabled, entries stay local")
			return forwarder.NopQueue{}, noClose, nil
		}
		client := budget.New(cfg.Budget.ClientConfig(), nil, logger)
		d := forwarder.NewDispatcher(forwarder.New(client, m, logger), cfg.Forward.Workers, cfg.Forward.Buffer, m, logger)
		return d, d.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown forward queue %q", config.ErrInvalidConfig, cfg.Forward.Queue)
}
