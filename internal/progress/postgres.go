package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/p-n-ai/coursekit/internal/platform/database"
)

// PostgresPersister stores the record as a JSONB row keyed by learner.
// Closing it closes the underlying pool.
type PostgresPersister struct {
	db      *database.DB
	learner string
}

// NewPostgresPersister creates a persister for learner, creating the table if needed.
func NewPostgresPersister(ctx context.Context, db *database.DB, learner string) (*PostgresPersister, error) {
	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if learner == "" {
		return nil, fmt.Errorf("learner is required")
	}
	if err := db.Migrate(ctx); err != nil {
		return nil, err
	}
	return &PostgresPersister{db: db, learner: learner}, nil
}

func (p *PostgresPersister) Load() (*Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	var data []byte
	err := p.db.Pool.QueryRow(ctx,
		`SELECT record FROM learner_progress WHERE learner = $1`,
		p.learner,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return DecodeRecord(data, "learner_progress/"+p.learner), nil
}

func (p *PostgresPersister) Save(rec *Record, _ Event) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	_, err = p.db.Pool.Exec(ctx,
		`INSERT INTO learner_progress (learner, record, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (learner) DO UPDATE
		 SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		p.learner,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// HealthCheck verifies the database still answers.
func (p *PostgresPersister) HealthCheck(ctx context.Context) error {
	return p.db.HealthCheck(ctx)
}

func (p *PostgresPersister) Close() error {
	p.db.Close()
	return nil
}
