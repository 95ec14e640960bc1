package storage

import "context"

// OffsetStore persists the highest update identifier whose handling has been attempted.
// The store does not enforce monotonicity; callers must only pass non-decreasing values.
type OffsetStore interface {
	GetOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}
