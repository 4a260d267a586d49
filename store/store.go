// SPDX-License-Identifier: MIT

// Package store persists forward results in SQLite.
//
// Layout:
//
//	runs    (id, solution, created_at, method, rows, cols, grad_cols, meta JSON)
//	gain    (run_id, kind 'gain'|'grad', row, sensor, data BLOB little-endian float64)
//	omitted (run_id, seq, vertex, x, y, z, distance, reason)
//
// One Write is one transaction. *Store implements forward.Writer.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/leadfield/forward"
	"github.com/katalvlaran/leadfield/matrix"
	"github.com/katalvlaran/leadfield/sourcespace"
	_ "github.com/mattn/go-sqlite3"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrRunNotFound is returned by the loaders for an unknown run id.
	ErrRunNotFound = errors.New("store: run not found")

	// ErrCorruptBlob indicates a stored row whose length does not match the run.
	ErrCorruptBlob = errors.New("store: corrupt matrix row")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	solution TEXT,
	created_at DATETIME,
	method TEXT,
	rows INTEGER,
	cols INTEGER,
	grad_cols INTEGER,
	meta TEXT
);
CREATE TABLE IF NOT EXISTS gain (
	run_id TEXT,
	kind TEXT,
	row INTEGER,
	sensor TEXT,
	data BLOB,
	PRIMARY KEY (run_id, kind, row)
);
CREATE TABLE IF NOT EXISTS omitted (
	run_id TEXT,
	seq INTEGER,
	vertex INTEGER,
	x REAL,
	y REAL,
	z REAL,
	distance REAL,
	reason TEXT,
	PRIMARY KEY (run_id, seq)
);
`

// Store is a SQLite-backed forward.Writer.
type Store struct {
	db *sql.DB
}

var _ forward.Writer = (*Store)(nil)

// Open connects to dsn (a file path or any go-sqlite3 DSN) and creates the
// tables if needed.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", dsn, err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Write stores the run metadata, every gain (and gradient) row, and the
// omitted points in one transaction.
func (s *Store) Write(ctx context.Context, res *forward.Result) (err error) {
	meta, err := json.Marshal(res.Meta)
	if err != nil {
		return fmt.Errorf("store: metadata: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	id := res.Meta.RunID.String()
	gradCols := 0
	if res.Grad != nil {
		gradCols = res.Grad.Cols()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, solution, created_at, method, rows, cols, grad_cols, meta) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.Meta.SolutionName, res.Meta.CreatedAt.UTC(), res.Meta.Method, res.Gain.Rows(), res.Gain.Cols(), gradCols, string(meta),
	); err != nil {
		return fmt.Errorf("store: run %s: %w", id, err)
	}

	if err = writeRows(ctx, tx, id, "gain", res.Gain, res.Meta.SensorNames); err != nil {
		return err
	}
	if res.Grad != nil {
		if err = writeRows(ctx, tx, id, "grad", res.Grad, res.Meta.SensorNames); err != nil {
			return err
		}
	}

	for i, o := range res.Omitted {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO omitted (run_id, seq, vertex, x, y, z, distance, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, o.Index, o.Pos.X, o.Pos.Y, o.Pos.Z, o.Distance, o.Reason.String(),
		); err != nil {
			return fmt.Errorf("store: omitted %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	return nil
}

func writeRows(ctx context.Context, tx *sql.Tx, id, kind string, m *matrix.Dense, names []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO gain (run_id, kind, row, sensor, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare %s: %w", kind, err)
	}
	defer stmt.Close()

	for r := 0; r < m.Rows(); r++ {
		row, err := m.RawRow(r)
		if err != nil {
			return err
		}
		name := ""
		if r < len(names) {
			name = names[r]
		}
		if _, err = stmt.ExecContext(ctx, id, kind, r, name, encodeRow(row)); err != nil {
			return fmt.Errorf("store: %s row %d: %w", kind, r, err)
		}
	}

	return nil
}

func encodeRow(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}

	return b
}

func decodeRow(b []byte, cols int) ([]float64, error) {
	if len(b) != 8*cols {
		return nil, fmt.Errorf("%d bytes for %d columns: %w", len(b), cols, ErrCorruptBlob)
	}
	v := make([]float64, cols)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}

	return v, nil
}

// RunInfo is one line of the run ledger.
type RunInfo struct {
	ID        uuid.UUID
	Solution  string
	CreatedAt time.Time
	Method    string
	Rows      int
	Cols      int
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, solution, created_at, method, rows, cols FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var id string
		if err := rows.Scan(&id, &info.Solution, &info.CreatedAt, &info.Method, &info.Rows, &info.Cols); err != nil {
			return nil, fmt.Errorf("store: runs: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: run id %q: %w", id, err)
		}
		out = append(out, info)
	}

	return out, rows.Err()
}

// LoadGain reads back the gain matrix of a run.
func (s *Store) LoadGain(ctx context.Context, runID uuid.UUID) (*matrix.Dense, error) {
	return s.load(ctx, runID, "gain")
}

// LoadGrad reads back the gradient matrix; nil when the run has none.
func (s *Store) LoadGrad(ctx context.Context, runID uuid.UUID) (*matrix.Dense, error) {
	return s.load(ctx, runID, "grad")
}

func (s *Store) load(ctx context.Context, runID uuid.UUID, kind string) (*matrix.Dense, error) {
	id := runID.String()
	var nRows, nCols, gradCols int
	err := s.db.QueryRowContext(ctx, `SELECT rows, cols, grad_cols FROM runs WHERE id = ?`, id).Scan(&nRows, &nCols, &gradCols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", id, err)
	}
	if kind == "grad" {
		if gradCols == 0 {
			return nil, nil
		}
		nCols = gradCols
	}

	rows, err := s.db.QueryContext(ctx, `SELECT row, data FROM gain WHERE run_id = ? AND kind = ? ORDER BY row`, id, kind)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s: %w", id, kind, err)
	}
	defer rows.Close()

	data := make([]float64, 0, nRows*nCols)
	next := 0
	for rows.Next() {
		var r int
		var blob []byte
		if err := rows.Scan(&r, &blob); err != nil {
			return nil, fmt.Errorf("store: %s %s: %w", id, kind, err)
		}
		if r != next {
			return nil, fmt.Errorf("store: %s %s: missing row %d: %w", id, kind, next, ErrCorruptBlob)
		}
		v, err := decodeRow(blob, nCols)
		if err != nil {
			return nil, fmt.Errorf("store: %s %s row %d: %w", id, kind, r, err)
		}
		data = append(data, v...)
		next++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if next != nRows {
		return nil, fmt.Errorf("store: %s %s: %d of %d rows: %w", id, kind, next, nRows, ErrCorruptBlob)
	}

	return matrix.NewDenseFrom(nRows, nCols, data)
}

// LoadOmitted reads back the omitted points of a run, in filter order.
func (s *Store) LoadOmitted(ctx context.Context, runID uuid.UUID) ([]sourcespace.Omitted, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vertex, x, y, z, distance, reason FROM omitted WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("store: omitted: %w", err)
	}
	defer rows.Close()

	var out []sourcespace.Omitted
	for rows.Next() {
		var o sourcespace.Omitted
		var reason string
		var p r3.Vec
		if err := rows.Scan(&o.Index, &p.X, &p.Y, &p.Z, &o.Distance, &reason); err != nil {
			return nil, fmt.Errorf("store: omitted: %w", err)
		}
		o.Pos = p
		o.Reason = parseReason(reason)
		out = append(out, o)
	}

	return out, rows.Err()
}

func parseReason(s string) sourcespace.OmitReason {
	for _, r := range []sourcespace.OmitReason{sourcespace.OmitOutside, sourcespace.OmitTooClose} {
		if r.String() == s {
			return r
		}
	}

	return 0
}
