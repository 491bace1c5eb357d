package state

import "context"

// Store is the kv persistence behind plan records. The sqlite
// implementation backs the bot; tests substitute an in-memory map.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
