package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/cinex/internal/shared"
)

// Keys used by the session.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeyGuestMode = "isGuestMode"
)

// Store is durable client storage.
type Store interface {
	// Get returns the value for key, or [shared.ErrKeyNotFound].
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all pairs atomically.
	SetMany(ctx context.Context, pairs map[string]string) error
	// Remove deletes keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Open creates the [Store] selected by cfg.Driver.
func Open(ctx context.Context, cfg shared.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(cfg.Path, cfg.MaxOpenConns, cfg.MaxIdleConns)
	case "redis":
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.Prefix)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// Lookup returns the value for key and whether it was present, hiding [shared.ErrKeyNotFound].
func Lookup(ctx context.Context, s Store, key string) (string, bool, error) {
	v, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return v, true, nil
	case IsNotFound(err):
		return "", false, nil
	default:
		return "", false, err
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrKeyNotFound)
}
