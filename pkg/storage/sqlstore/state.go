package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

const stateRowID = 1

func (s *Store) GetOffset(ctx context.Context) (int64, error) {
	var offset int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT update_offset FROM bot_state WHERE id = ?`), stateRowID).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get offset: %w", err)
	}
	return offset, nil
}

func (s *Store) SaveOffset(ctx context.Context, offset int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO bot_state (id, update_offset) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET update_offset = excluded.update_offset`),
		stateRowID, offset,
	)
	if err != nil {
		return fmt.Errorf("failed to save offset: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, userID int64) (*models.SessionRecord, error) {
	var (
		stage string
		draft string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT stage, draft FROM sessions WHERE user_id = ?`), userID).Scan(&stage, &draft)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rec := models.SessionRecord{Stage: models.Stage(stage)}
	if err := json.Unmarshal([]byte(draft), &rec.Draft); err != nil {
		return nil, fmt.Errorf("%w: session draft for user %d: %v", storage.ErrCorruptState, userID, err)
	}
	return &rec, nil
}

func (s *Store) SaveSession(ctx context.Context, userID int64, session models.SessionRecord) error {
	if session.Stage == models.StageNone {
		return s.ClearSession(ctx, userID)
	}

	draft, err := json.Marshal(session.Draft)
	if err != nil {
		return fmt.Errorf("failed to marshal session draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (user_id, stage, draft) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET stage = excluded.stage, draft = excluded.draft`),
		userID, string(session.Stage), string(draft),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
