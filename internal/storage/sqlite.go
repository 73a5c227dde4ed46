//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"genesis/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveOrganism(ctx context.Context, rec model.OrganismRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	stampOrganism(&rec)
	payload, err := EncodeOrganism(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO organisms (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, rec.ID, rec.SchemaVersion, rec.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetOrganism(ctx context.Context, id string) (model.OrganismRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.OrganismRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM organisms WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OrganismRecord{}, false, nil
		}
		return model.OrganismRecord{}, false, err
	}

	rec, err := DecodeOrganism(payload)
	if err != nil {
		return model.OrganismRecord{}, false, fmt.Errorf("decode organism %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListOrganisms(ctx context.Context) ([]model.OrganismRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM organisms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrganismRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		rec, err := DecodeOrganism(payload)
		if err != nil {
			return nil, fmt.Errorf("decode organism %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteOrganism(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM organisms WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, event model.EvolutionEvent) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	event.VersionedRecord = Stamp()
	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO events (event_id, organism_id, cycle, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			organism_id = excluded.organism_id,
			cycle = excluded.cycle,
			payload = excluded.payload
	`, event.EventID, event.OrganismID, event.Cycle, payload)
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, organismID string, limit int) ([]model.EvolutionEvent, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT event_id, payload FROM events`
	args := []any{}
	if organismID != "" {
		query += ` WHERE organism_id = ?`
		args = append(args, organismID)
	}
	// Newest rows first so the limit keeps the most recent events, then
	// reverse back into append order.
	query += ` ORDER BY rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EvolutionEvent
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		event, err := DecodeEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", id, err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteStore) SaveCycleSummary(ctx context.Context, summary model.CycleSummary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	summary.VersionedRecord = Stamp()
	payload, err := EncodeCycleSummary(summary)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO cycles (run_id, cycle, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, cycle) DO UPDATE SET
			payload = excluded.payload
	`, summary.RunID, summary.Cycle, payload)
	return err
}

func (s *SQLiteStore) ListCycleSummaries(ctx context.Context, runID string) ([]model.CycleSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT run_id, cycle, payload FROM cycles`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY run_id, cycle`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CycleSummary
	for rows.Next() {
		var run string
		var cycle uint64
		var payload []byte
		if err := rows.Scan(&run, &cycle, &payload); err != nil {
			return nil, err
		}
		summary, err := DecodeCycleSummary(payload)
		if err != nil {
			return nil, fmt.Errorf("decode cycle summary %s/%d: %w", run, cycle, err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		DELETE FROM organisms;
		DELETE FROM events;
		DELETE FROM cycles;
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS organisms (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			organism_id TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_organism ON events(organism_id);
		CREATE TABLE IF NOT EXISTS cycles (
			run_id TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, cycle)
		);
	`)
	return err
}
