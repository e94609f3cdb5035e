package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/p-n-ai/coursekit/internal/platform/cache"
)

const remoteTimeout = 5 * time.Second

// RedisPersister stores the record under one cache key per learner.
// Closing it closes the underlying cache client.
type RedisPersister struct {
	cache *cache.Cache
	key   string
}

// NewRedisPersister creates a persister for learner on an open cache.
func NewRedisPersister(c *cache.Cache, learner string) (*RedisPersister, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is nil")
	}
	return &RedisPersister{cache: c, key: cache.Key("progress", learner)}, nil
}

// Key returns the cache key holding the record.
func (p *RedisPersister) Key() string {
	return p.key
}

func (p *RedisPersister) Load() (*Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	data, found, err := p.cache.GetBytes(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	if !found {
		return nil, nil
	}
	return DecodeRecord(data, p.key), nil
}

func (p *RedisPersister) Save(rec *Record, _ Event) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	return p.cache.SetBytes(ctx, p.key, data)
}

// HealthCheck verifies the cache still answers.
func (p *RedisPersister) HealthCheck(ctx context.Context) error {
	return p.cache.HealthCheck(ctx)
}

func (p *RedisPersister) Close() error {
	return p.cache.Close()
}
