package file

import (
	"context"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

func (s *Store) Append(ctx context.Context, entry models.LedgerEntry) (storage.AppendResult, error) {
	var result storage.AppendResult

	err := s.mutate(ctx, func() error {
		// 1. Load the current ledger.
		entries := []models.LedgerEntry{}
		if err := readJSON(s.LedgerPath, &entries); err != nil {
			return err
		}

		// 2. Reject the entry if its key is already present.
		key := entry.Key()
		for _, e := range entries {
			if e.Key() == key {
				result = storage.Duplicate
				return nil
			}
		}

		// 3. Rewrite the ledger with the new entry appended.
		if err := writeJSON(s.LedgerPath, append(entries, entry)); err != nil {
			return err
		}
		result = storage.Created
		return nil
	})
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []models.LedgerEntry{}
	if err := readJSON(s.LedgerPath, &entries); err != nil {
		return nil, err
	}

	storage.SortEntries(entries)
	return entries, nil
}
