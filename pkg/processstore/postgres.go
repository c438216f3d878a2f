package processstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// schema holds the two tables this store needs: an append-only event log
// and an upserted snapshot per process. The schema is small enough that a
// CREATE IF NOT EXISTS at open time replaces a migration framework.
const schema = `
CREATE TABLE IF NOT EXISTS process_events (
	id         BIGSERIAL PRIMARY KEY,
	process_id TEXT        NOT NULL,
	event      JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS process_events_process_id_idx ON process_events (process_id, id);

CREATE TABLE IF NOT EXISTS process_records (
	process_id TEXT PRIMARY KEY,
	record     JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore persists process state in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to connString, creates the schema if missing, and
// returns a ready store.
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO process_events (process_id, event) VALUES ($1, $2)`,
		ev.ProcessID, payload)
	if err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}
	return nil
}

// Events implements Store. Payloads come back as the generic JSON shapes
// they were stored as.
func (s *PostgresStore) Events(ctx context.Context, processID string) ([]events.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event FROM process_events WHERE process_id = $1 ORDER BY id`,
		processID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev events.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode stored event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// SaveRecord implements Store.
func (s *PostgresStore) SaveRecord(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO process_records (process_id, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (process_id) DO UPDATE SET record = $2, updated_at = $3`,
		rec.ProcessID, payload, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, processID string) (Record, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM process_records WHERE process_id = $1`,
		processID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to query record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, true, nil
}

// Records implements Store.
func (s *PostgresStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM process_records ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteOlderThan implements Store. Events and records are removed in one
// transaction so a process never loses its record while keeping its log.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM process_events WHERE process_id IN (
			SELECT process_id FROM process_records WHERE updated_at < $1
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM process_records WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit retention delete: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
