// Package vectorstore keeps embedded corpus passages in SQLite and answers
// nearest-neighbour queries by exhaustive L2 scan.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// Record is one embedded passage.
type Record struct {
	ID         string
	Scope      string
	SourceID   string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// Neighbor is a Record with its distance to the query vector.
type Neighbor struct {
	Record
	Distance float64
}

// SQLiteStore persists passages in a single table.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vectorstore: ping: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,
		source_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_passages_scope ON passages(scope);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("vectorstore: create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert writes records in one transaction, replacing existing ids.
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (id, scope, source_id, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scope = excluded.scope,
			source_id = excluded.source_id,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("vectorstore: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Scope, r.SourceID, r.ChunkIndex, r.Content, encodeVector(r.Embedding)); err != nil {
			return fmt.Errorf("vectorstore: upsert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: commit: %w", err)
	}
	return nil
}

// Has reports whether a record with id exists.
func (s *SQLiteStore) Has(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM passages WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("vectorstore: has: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored passages.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vectorstore: count: %w", err)
	}
	return n, nil
}

// Nearest returns up to n records closest to vec, nearest first. An empty
// scope searches every passage.
func (s *SQLiteStore) Nearest(ctx context.Context, vec []float32, scope string, n int) ([]Neighbor, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `SELECT id, scope, source_id, chunk_index, content, embedding FROM passages`
	var args []any
	if scope != "" {
		query += ` WHERE scope = ?`
		args = append(args, scope)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var r Record
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Scope, &r.SourceID, &r.ChunkIndex, &r.Content, &blob); err != nil {
			return nil, fmt.Errorf("vectorstore: scan: %w", err)
		}
		r.Embedding = decodeVector(blob)
		out = append(out, Neighbor{Record: r, Distance: L2(vec, r.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: rows: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
