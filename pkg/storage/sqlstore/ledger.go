package sqlstore

import (
	"context"
	"fmt"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

// Append relies on the (chat_id, message_id) primary key. Concurrent writers
// of the same key race inside the database, and exactly one of them inserts.
func (s *Store) Append(ctx context.Context, entry models.LedgerEntry) (storage.AppendResult, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO ledger_entries
			(chat_id, message_id, user_id, ts, date_iso, amount, currency, category, description, payee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, message_id) DO NOTHING`),
		entry.ChatID, entry.MessageID, entry.UserID, entry.Timestamp, entry.LocalDateTime,
		entry.Amount, entry.Currency, entry.Category, entry.Description, entry.Payee,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return storage.Duplicate, nil
	}
	return storage.Created, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, message_id, user_id, ts, date_iso, amount, currency, category, description, payee
		FROM ledger_entries
		ORDER BY ts, chat_id, message_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ChatID, &e.MessageID, &e.UserID, &e.Timestamp, &e.LocalDateTime,
			&e.Amount, &e.Currency, &e.Category, &e.Description, &e.Payee); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
