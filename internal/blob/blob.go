// Package blob provides key-value blob stores used to persist the mission tree.
//
// Every backend stores opaque bytes under a string key. Load reports ok=false
// for a key that was never saved.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is a key-value blob store.
type Store interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Backends lists every backend name accepted by [Open].
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendPostgres, BackendMemory}

var (
	// ErrUnavailable reports a backend that could not be opened or reached.
	ErrUnavailable = errors.New("blob store unavailable")

	// ErrInvalidKey reports a key the backend cannot store.
	ErrInvalidKey = errors.New("invalid blob key")

	// ErrUnknownBackend reports an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown backend")

	errClosed = errors.New("blob store closed")
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Dir holds file and sqlite data.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresDSN string
}

// Open returns the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return OpenFile(cfg.Dir)
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Dir)
	case BackendRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, cfg.Backend, strings.Join(Backends, ", "))
	}
}

// validateKey rejects keys that cannot double as a file name.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	if key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}
