package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interview-backend/internal/candidates"
)

// Postgres stores the snapshot as a JSONB row in store_snapshots.
type Postgres struct {
	DB  *sql.DB
	Key string
}

// NewPostgres returns a persister over db using the root key.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db, Key: RootKey}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Load(ctx context.Context) (candidates.Snapshot, bool, error) {
	var body []byte
	err := p.DB.QueryRowContext(ctx, `SELECT body FROM store_snapshots WHERE key = $1`, p.Key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return candidates.EmptySnapshot(), false, nil
	}
	if err != nil {
		return candidates.Snapshot{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	snap, err := decode(body)
	if err != nil {
		return candidates.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (p *Postgres) Save(ctx context.Context, snap candidates.Snapshot) error {
	body, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = p.DB.ExecContext(ctx, `
		INSERT INTO store_snapshots (key, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		p.Key, body)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

var _ Persister = (*Postgres)(nil)
