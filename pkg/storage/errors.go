package storage

import "errors"

// ErrCorruptState is returned when persisted data cannot be decoded.
// Backends never treat unreadable data as empty, since the next write would discard it.
var ErrCorruptState = errors.New("persisted state is corrupt")

// ErrUnknownBackend is returned when the configured storage backend is not supported.
var ErrUnknownBackend = errors.New("unknown storage backend")
