package trace

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/pipeline"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS passes (
	compilation TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	pass        TEXT    NOT NULL,
	program     TEXT    NOT NULL,
	recorded_at TEXT    NOT NULL,
	PRIMARY KEY (compilation, seq)
)`

// SQLiteSink stores one row per (compilation, pass). Rows are keyed by the
// compilation id so several runs can share a database.
type SQLiteSink struct {
	db *sql.DB

	mu  sync.Mutex
	seq map[uuid.UUID]int
	err error
}

// OpenSQLite opens or creates the trace database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	// Concurrent compilations may share one database.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening trace database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trace schema in %s: %w", path, err)
	}
	return &SQLiteSink{db: db, seq: make(map[uuid.UUID]int)}, nil
}

// Capture implements pipeline.CaptureFunc. The first write error is kept and
// later captures are dropped; see Err.
func (s *SQLiteSink) Capture(pass string, prog *ast.Program, ctx *pipeline.PipelineContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	seq := s.seq[ctx.ID]
	s.seq[ctx.ID] = seq + 1
	_, err := s.db.Exec(
		`INSERT INTO passes (compilation, seq, pass, program, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		ctx.ID.String(), seq, pass, render(prog), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.err = fmt.Errorf("recording pass %s: %w", pass, err)
	}
}

// Err returns the first error met while recording.
func (s *SQLiteSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshots returns the stored passes of one compilation in order.
func (s *SQLiteSink) Snapshots(id uuid.UUID) ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT pass, program FROM passes WHERE compilation = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Pass, &snap.Program); err != nil {
			return nil, fmt.Errorf("reading trace: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Compilations lists the ids recorded in the database.
func (s *SQLiteSink) Compilations() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT DISTINCT compilation FROM passes ORDER BY compilation`)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("reading trace: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("bad compilation id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
