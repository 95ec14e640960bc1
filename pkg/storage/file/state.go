package file

import (
	"context"
	"strconv"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

type stateDoc struct {
	UpdateOffset int64                           `json:"update_offset"`
	Sessions     map[string]models.SessionRecord `json:"sessions"`
}

func (s *Store) loadState() (*stateDoc, error) {
	doc := &stateDoc{}
	if err := readJSON(s.StatePath, doc); err != nil {
		return nil, err
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string]models.SessionRecord{}
	}
	return doc, nil
}

// updateState applies fn to the current state and writes the result back.
func (s *Store) updateState(ctx context.Context, fn func(*stateDoc)) error {
	return s.mutate(ctx, func() error {
		doc, err := s.loadState()
		if err != nil {
			return err
		}
		fn(doc)
		return writeJSON(s.StatePath, doc)
	})
}

func (s *Store) GetOffset(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadState()
	if err != nil {
		return 0, err
	}
	return doc.UpdateOffset, nil
}

func (s *Store) SaveOffset(ctx context.Context, offset int64) error {
	return s.updateState(ctx, func(doc *stateDoc) {
		doc.UpdateOffset = offset
	})
}

func (s *Store) GetSession(ctx context.Context, userID int64) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadState()
	if err != nil {
		return nil, err
	}

	rec, ok := doc.Sessions[strconv.FormatInt(userID, 10)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) SaveSession(ctx context.Context, userID int64, session models.SessionRecord) error {
	if session.Stage == models.StageNone {
		return s.ClearSession(ctx, userID)
	}

	return s.updateState(ctx, func(doc *stateDoc) {
		doc.Sessions[strconv.FormatInt(userID, 10)] = session
	})
}

func (s *Store) ClearSession(ctx context.Context, userID int64) error {
	return s.updateState(ctx, func(doc *stateDoc) {
		delete(doc.Sessions, strconv.FormatInt(userID, 10))
	})
}
