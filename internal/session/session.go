package session

import "context"

// Store manages login session tokens. The server never persists sessions
// across restarts; losing them on restart is an accepted trade-off.
type Store interface {
	// Create mints a new opaque token valid for the store's TTL.
	Create(ctx context.Context) (string, error)
	// Valid reports whether token refers to a live, unexpired session.
	Valid(ctx context.Context, token string) (bool, error)
	// Revoke invalidates token. Revoking an unknown token is a no-op.
	Revoke(ctx context.Context, token string) error
	Close() error
}
