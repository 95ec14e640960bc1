package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/lock"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

func newTestStore(t *testing.T, locker lock.Locker) *Store {
	t.Helper()

	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "data", "ledger.json"), filepath.Join(dir, "state.json"), locker)
	require.NoError(t, err)
	return store
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	entry := models.LedgerEntry{ChatID: 1, MessageID: 2, UserID: 3, Timestamp: 100, LocalDateTime: "2024-01-01 10:00", Amount: -2500, Currency: "ARS", Category: "Comida"}

	t.Run("Created Then Duplicate", func(t *testing.T) {
		store := newTestStore(t, nil)

		result, err := store.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, storage.Created, result)

		result, err = store.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, storage.Duplicate, result)

		entries, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Corrupt Ledger", func(t *testing.T) {
		store := newTestStore(t, nil)
		require.NoError(t, os.WriteFile(store.LedgerPath, []byte("[{"), 0o644))

		_, err := store.Append(ctx, entry)
		assert.ErrorIs(t, err, storage.ErrCorruptState)

		data, err := os.ReadFile(store.LedgerPath)
		require.NoError(t, err)
		assert.Equal(t, "[{", string(data), "a corrupt ledger must not be overwritten")
	})

	t.Run("No Temp Files Left", func(t *testing.T) {
		store := newTestStore(t, nil)

		_, err := store.Append(ctx, entry)
		require.NoError(t, err)

		files, err := os.ReadDir(filepath.Dir(store.LedgerPath))
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "ledger.json", files[0].Name())
	})

	t.Run("Concurrent Appends With Redis Lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		dir := t.TempDir()
		ledger, state := filepath.Join(dir, "ledger.json"), filepath.Join(dir, "state.json")
		locker := lock.NewRedisLocker(client, lock.DefaultOptions(), zap.NewNop())

		// Two stores on the same files stand in for two processes.
		a, err := New(ledger, state, locker)
		require.NoError(t, err)
		b, err := New(ledger, state, locker)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := int64(0); i < 10; i++ {
			wg.Add(1)
			go func(i int64) {
				defer wg.Done()
				store := a
				if i%2 == 1 {
					store = b
				}
				e := entry
				e.MessageID = i
				_, err := store.Append(ctx, e)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		entries, err := a.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 10)
	})
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing File", func(t *testing.T) {
		store := newTestStore(t, nil)

		entries, err := store.LoadAll(ctx)

		assert.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Sorted By Timestamp", func(t *testing.T) {
		store := newTestStore(t, nil)
		for _, e := range []models.LedgerEntry{
			{ChatID: 1, MessageID: 1, Timestamp: 300},
			{ChatID: 1, MessageID: 2, Timestamp: 100},
			{ChatID: 1, MessageID: 3, Timestamp: 200},
		} {
			_, err := store.Append(ctx, e)
			require.NoError(t, err)
		}

		entries, err := store.LoadAll(ctx)

		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 1}, []int64{entries[0].MessageID, entries[1].MessageID, entries[2].MessageID})
	})
}

func TestState(t *testing.T) {
	ctx := context.Background()

	t.Run("Reads Existing State File", func(t *testing.T) {
		store := newTestStore(t, nil)
		legacy := `{
  "update_offset": 812,
  "sessions": {
    "55": {"stage": "category", "draft": {"type": "income", "amount": 1500, "currency": "USD"}}
  }
}`
		require.NoError(t, os.WriteFile(store.StatePath, []byte(legacy), 0o644))

		offset, err := store.GetOffset(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(812), offset)

		rec, err := store.GetSession(ctx, 55)
		require.NoError(t, err)
		require.NotNil(t, rec)

		session, err := models.DecodeSession(*rec)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryStep{Type: models.INCOME, Amount: 1500, Currency: "USD"}, session)
	})

	t.Run("Offset And Sessions Share The File", func(t *testing.T) {
		store := newTestStore(t, nil)

		require.NoError(t, store.SaveSession(ctx, 7, models.EncodeSession(models.AmountStep{Type: models.EXPENSE})))
		require.NoError(t, store.SaveOffset(ctx, 3))

		rec, err := store.GetSession(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, models.StageAmount, rec.Stage)

		require.NoError(t, store.SaveSession(ctx, 7, models.SessionRecord{}))
		rec, err = store.GetSession(ctx, 7)
		require.NoError(t, err)
		assert.Nil(t, rec)

		offset, err := store.GetOffset(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), offset)
	})

	t.Run("Corrupt State", func(t *testing.T) {
		store := newTestStore(t, nil)
		require.NoError(t, os.WriteFile(store.StatePath, []byte("{nope"), 0o644))

		_, err := store.GetOffset(ctx)
		assert.ErrorIs(t, err, storage.ErrCorruptState)

		err = store.SaveOffset(ctx, 1)
		assert.ErrorIs(t, err, storage.ErrCorruptState)
	})
}
