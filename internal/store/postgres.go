package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresArchive is the durable EventArchive for tracked canonical events.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive creates a connection pool and fails fast if the
// database is unreachable.
func NewPostgresArchive(dbURL string) (*PostgresArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresArchive{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresArchive) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresArchive) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresArchive) Close() {
	p.pool.Close()
}

// InsertEvent persists a tracked event and returns inserted=false when it is
// a duplicate.
//
// Duplicate detection is enforced by the database constraint on
// (site_id, event_id), which is compatible with retries and at-least-once
// delivery from the tracking clients.
func (p *PostgresArchive) InsertEvent(ctx context.Context, ev ArchivedEvent) (bool, error) {
	if ev.SiteID == "" || ev.EventID == "" || ev.EventName == "" {
		return false, errors.New("siteID/eventID/eventName required")
	}

	data := ev.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return false, err
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err = p.pool.QueryRow(ctx, `
		INSERT INTO tracked_events(site_id, event_id, device_id, session_id, event_name, ts, data)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (site_id, event_id) DO NOTHING
		RETURNING 1
	`, ev.SiteID, ev.EventID, ev.DeviceID, ev.SessionID, string(ev.EventName), ev.Timestamp, dataJSON).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}
