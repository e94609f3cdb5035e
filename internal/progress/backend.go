package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/p-n-ai/coursekit/internal/platform/cache"
	"github.com/p-n-ai/coursekit/internal/platform/database"
)

// Backend names accepted by OpenPersister.
const (
	BackendFile     = "file"
	BackendWAL      = "wal"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ErrUnknownBackend is returned for a backend name OpenPersister does not recognise.
var ErrUnknownBackend = errors.New("unknown progress backend")

// Backends lists every supported backend name.
var Backends = []string{BackendFile, BackendWAL, BackendBadger, BackendRedis, BackendPostgres}

// BackendConfig selects and configures a persister.
type BackendConfig struct {
	Backend     string
	Path        string // file, wal and badger backends
	Learner     string // badger, redis and postgres backends
	DatabaseURL string
	MaxConns    int
	MinConns    int
	CacheURL    string
}

// DefaultPath returns the default on-disk location for a local backend.
func DefaultPath(backend string) string {
	switch backend {
	case BackendWAL:
		return ".progress.wal"
	case BackendBadger:
		return ".progress.db"
	default:
		return ".progress.json"
	}
}

// OpenPersister opens the backend named in cfg.
func OpenPersister(ctx context.Context, cfg BackendConfig) (Persister, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath(cfg.Backend)
	}

	switch cfg.Backend {
	case "", BackendFile:
		return NewFilePersister(path), nil
	case BackendWAL:
		p, err := OpenWAL(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendBadger:
		p, err := OpenBadger(path, cfg.Learner)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendRedis:
		c, err := cache.New(ctx, cfg.CacheURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		p, err := NewRedisPersister(c, cfg.Learner)
		if err != nil {
			c.Close()
			return nil, err
		}
		return p, nil
	case BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		p, err := NewPostgresPersister(ctx, db, cfg.Learner)
		if err != nil {
			db.Close()
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
