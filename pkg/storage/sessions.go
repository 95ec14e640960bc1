package storage

import (
	"context"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// SessionStore keeps one wizard session per user.
type SessionStore interface {
	// GetSession returns the user's session, or nil when there is none.
	GetSession(ctx context.Context, userID int64) (*models.SessionRecord, error)

	// SaveSession stores the user's session. Saving a record whose stage is
	// StageNone removes the session instead of storing it.
	SaveSession(ctx context.Context, userID int64, session models.SessionRecord) error

	// ClearSession removes the user's session. Clearing a missing session is not an error.
	ClearSession(ctx context.Context, userID int64) error
}
