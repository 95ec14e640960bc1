package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/ingest/mocks"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage/file"
	storemocks "github.com/David-Schmidt02/gastos-bot/pkg/storage/mocks"
)

var testOptions = Options{PollTimeout: time.Second, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func newOffsetStore(t *testing.T) *file.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := file.New(filepath.Join(dir, "ledger.json"), filepath.Join(dir, "state.json"), nil)
	require.NoError(t, err)
	return store
}

func update(id int64, text string) models.Update {
	return models.Update{
		ID: id,
		Message: &models.Message{
			ID:   id * 10,
			Chat: models.Chat{ID: 500},
			From: models.User{ID: 9, Username: "ana"},
			Text: text,
		},
	}
}

func messageID(id int64) interface{} {
	return mock.MatchedBy(func(m models.Message) bool { return m.ID == id })
}

// stopAfter makes the next poll cancel the loop.
func stopAfter(transport *mocks.Transport, cancel context.CancelFunc, offset int64) {
	transport.On("GetUpdates", mock.Anything, offset, mock.Anything).Once().
		Return(func(ctx context.Context, _ int64, _ time.Duration) ([]models.Update, error) {
			cancel()
			return nil, ctx.Err()
		})
}

func TestRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newOffsetStore(t)
		transport := mocks.NewTransport(t)
		handler := mocks.NewHandler(t)
		m := metrics.New(prometheus.NewRegistry())

		transport.On("GetUpdates", mock.Anything, int64(1), time.Second).Once().Return([]models.Update{
			update(1, "hola"),
			{ID: 2},
			update(3, "falla"),
			update(4, "explota"),
		}, nil)
		stopAfter(transport, cancel, 5)

		handler.On("Route", mock.Anything, messageID(10)).Once().Return(nil)
		handler.On("Route", mock.Anything, messageID(30)).Once().Return(errors.New("store unavailable"))
		handler.On("Route", mock.Anything, messageID(40)).Once().Run(func(mock.Arguments) {
			panic("nil draft")
		})
		transport.On("SendMessage", mock.Anything, int64(500), "❌ Error inesperado: store unavailable", (*models.Keyboard)(nil)).Once().Return(nil)
		transport.On("SendMessage", mock.Anything, int64(500), mock.MatchedBy(func(s string) bool {
			return strings.HasPrefix(s, "❌ Error inesperado: panic: nil draft")
		}), (*models.Keyboard)(nil)).Once().Return(nil)

		err := New(transport, handler, store, testOptions, m, zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		offset, err := store.GetOffset(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), offset)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesProcessed.WithLabelValues(metrics.OutcomeHandled)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesProcessed.WithLabelValues(metrics.OutcomeSkipped)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesProcessed.WithLabelValues(metrics.OutcomeFailed)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesProcessed.WithLabelValues(metrics.OutcomePanic)))
	})

	t.Run("Skips Already Handled Updates", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newOffsetStore(t)
		require.NoError(t, store.SaveOffset(ctx, 10))
		transport := mocks.NewTransport(t)
		handler := mocks.NewHandler(t)

		transport.On("GetUpdates", mock.Anything, int64(11), mock.Anything).Once().
			Return([]models.Update{update(9, "viejo"), update(10, "viejo"), update(11, "nuevo")}, nil)
		stopAfter(transport, cancel, 12)
		handler.On("Route", mock.Anything, messageID(110)).Once().Return(nil)

		err := New(transport, handler, store, testOptions, metrics.New(prometheus.NewRegistry()), zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		offset, err := store.GetOffset(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(11), offset)
	})

	t.Run("Poll Errors Back Off And Retry", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newOffsetStore(t)
		transport := mocks.NewTransport(t)
		handler := mocks.NewHandler(t)
		m := metrics.New(prometheus.NewRegistry())

		transport.On("GetUpdates", mock.Anything, int64(1), mock.Anything).Twice().Return(nil, errors.New("connection reset"))
		transport.On("GetUpdates", mock.Anything, int64(1), mock.Anything).Once().Return([]models.Update{update(1, "hola")}, nil)
		stopAfter(transport, cancel, 2)
		handler.On("Route", mock.Anything, messageID(10)).Once().Return(nil)

		err := New(transport, handler, store, testOptions, m, zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.PollErrors))
	})

	t.Run("Notification Failure Does Not Stop The Loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newOffsetStore(t)
		transport := mocks.NewTransport(t)
		handler := mocks.NewHandler(t)

		transport.On("GetUpdates", mock.Anything, int64(1), mock.Anything).Once().
			Return([]models.Update{update(1, "a"), update(2, "b")}, nil)
		stopAfter(transport, cancel, 3)
		handler.On("Route", mock.Anything, messageID(10)).Once().Return(errors.New("boom"))
		handler.On("Route", mock.Anything, messageID(20)).Once().Return(nil)
		transport.On("SendMessage", mock.Anything, int64(500), mock.Anything, mock.Anything).Once().Return(errors.New("blocked by user"))

		err := New(transport, handler, store, testOptions, metrics.New(prometheus.NewRegistry()), zap.NewNop()).Run(ctx)

		require.NoError(t, err)
		offset, err := store.GetOffset(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), offset)
	})

	t.Run("Offset Save Failure Still Advances", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := storemocks.NewStorage(t)
		transport := mocks.NewTransport(t)
		handler := mocks.NewHandler(t)

		store.On("GetOffset", mock.Anything).Return(int64(0), nil)
		store.On("SaveOffset", mock.Anything, int64(1)).Once().Return(errors.New("read-only file system"))
		store.On("SaveOffset", mock.Anything, int64(2)).Once().Return(nil)
		transport.On("GetUpdates", mock.Anything, int64(1), mock.Anything).Once().
			Return([]models.Update{update(1, "a"), update(2, "b")}, nil)
		stopAfter(transport, cancel, 3)
		handler.On("Route", mock.Anything, mock.Anything).Twice().Return(nil)

		err := New(transport, handler, store, testOptions, metrics.New(prometheus.NewRegistry()), zap.NewNop()).Run(ctx)

		assert.NoError(t, err)
	})

	t.Run("Initial Offset Failure", func(t *testing.T) {
		store := storemocks.NewStorage(t)
		store.On("GetOffset", mock.Anything).Return(int64(0), errors.New("corrupt"))

		err := New(mocks.NewTransport(t), mocks.NewHandler(t), store, testOptions, metrics.New(prometheus.NewRegistry()), zap.NewNop()).Run(context.Background())

		assert.ErrorContains(t, err, "failed to load update offset")
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(nil, nil, nil, Options{}, metrics.New(prometheus.NewRegistry()), zap.NewNop())

	assert.Equal(t, DefaultOptions(), l.opts)
}
