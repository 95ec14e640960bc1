package storage

//go:generate mockery --name Storage --output ./mocks --outpkg mocks

// Storage defines the root interface for the entire data layer.
// It composes all available storage operations. Components should depend on the
// more granular interfaces (LedgerStore, SessionStore, OffsetStore) instead of this one.
type Storage interface {
	LedgerStore
	SessionStore
	OffsetStore

	// Close releases the underlying connections or file handles.
	Close() error
}

// ConversationStore is what the conversation router needs: ledger appends
// and per-user sessions.
type ConversationStore interface {
	LedgerStore
	SessionStore
}
