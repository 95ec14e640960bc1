package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := Open(context.Background(), DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOpen(t *testing.T) {
	t.Run("Unknown Driver", func(t *testing.T) {
		_, err := Open(context.Background(), "oracle", "")
		assert.ErrorIs(t, err, storage.ErrUnknownBackend)
	})

	t.Run("Migrations Are Idempotent", func(t *testing.T) {
		dsn := "file:reopen?mode=memory&cache=shared"
		first, err := Open(context.Background(), DriverSQLite, dsn)
		require.NoError(t, err)
		defer first.Close()

		second, err := Open(context.Background(), DriverSQLite, dsn)
		require.NoError(t, err)
		assert.NoError(t, second.Close())
	})

	t.Run("Private In-Memory Database", func(t *testing.T) {
		ctx := context.Background()
		store, err := Open(ctx, DriverSQLite, ":memory:")
		require.NoError(t, err)
		defer store.Close()

		result, err := store.Append(ctx, models.LedgerEntry{
			ChatID: 1, MessageID: 2, UserID: 3, Timestamp: 1700000000,
			LocalDateTime: "2023-11-14 19:13", Amount: -2500, Currency: "ARS", Category: "Comida",
		})
		require.NoError(t, err)
		assert.Equal(t, storage.Created, result)

		require.NoError(t, store.SaveOffset(ctx, 42))
		offset, err := store.GetOffset(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), offset)
	})
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	entry := models.LedgerEntry{
		ChatID: 1, MessageID: 2, UserID: 3, Timestamp: 1700000000,
		LocalDateTime: "2023-11-14 19:13", Amount: -2500, Currency: "ARS", Category: "Comida",
	}

	t.Run("Created Then Duplicate", func(t *testing.T) {
		store := newTestStore(t)

		result, err := store.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, storage.Created, result)

		changed := entry
		changed.Amount = 999
		result, err = store.Append(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, storage.Duplicate, result)

		entries, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.LedgerEntry{entry}, entries)
	})

	t.Run("Concurrent Appends Store Once", func(t *testing.T) {
		store := newTestStore(t)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := store.Append(ctx, entry)
				assert.NoError(t, err)
				if result == storage.Created {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
	})
}

func TestLoadAllOrdersByTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	late := models.LedgerEntry{ChatID: 1, MessageID: 1, Timestamp: 300, Currency: "ARS", Category: "Ocio"}
	early := models.LedgerEntry{ChatID: 1, MessageID: 2, Timestamp: 100, Currency: "USD", Category: "Varios", Description: "bono", Amount: 10}
	for _, e := range []models.LedgerEntry{late, early} {
		_, err := store.Append(ctx, e)
		require.NoError(t, err)
	}

	entries, err := store.LoadAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, []models.LedgerEntry{early, late}, entries)
}

func TestOffset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	offset, err := store.GetOffset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	require.NoError(t, store.SaveOffset(ctx, 10))
	require.NoError(t, store.SaveOffset(ctx, 11))

	offset, err = store.GetOffset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), offset)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	amount := int64(2500)
	currency := "ARS"

	t.Run("Save Get Clear", func(t *testing.T) {
		store := newTestStore(t)

		got, err := store.GetSession(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)

		first := models.SessionRecord{Stage: models.StageCurrency, Draft: models.Draft{Type: models.EXPENSE, Amount: &amount}}
		require.NoError(t, store.SaveSession(ctx, 42, first))

		second := models.SessionRecord{Stage: models.StageCategory, Draft: models.Draft{Type: models.EXPENSE, Amount: &amount, Currency: &currency}}
		require.NoError(t, store.SaveSession(ctx, 42, second))

		got, err = store.GetSession(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, second, *got)

		require.NoError(t, store.ClearSession(ctx, 42))
		got, err = store.GetSession(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Saving None Clears", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.SaveSession(ctx, 1, models.SessionRecord{Stage: models.StageAmount, Draft: models.Draft{Type: models.INCOME}}))
		require.NoError(t, store.SaveSession(ctx, 1, models.SessionRecord{}))

		got, err := store.GetSession(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Corrupt Draft", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.db.ExecContext(ctx, `INSERT INTO sessions (user_id, stage, draft) VALUES (9, 'amount', '{not json')`)
		require.NoError(t, err)

		_, err = store.GetSession(ctx, 9)
		assert.ErrorIs(t, err, storage.ErrCorruptState)
	})
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	lite := &Store{driver: DriverSQLite}

	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}
