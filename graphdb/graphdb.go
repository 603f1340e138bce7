package graphdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/keygraph/graph"
	"github.com/hupe1980/keygraph/model"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path and ensures the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("graphdb: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("graphdb: create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			checkpoint TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS frames (
			id INTEGER PRIMARY KEY,
			frame_index INTEGER NOT NULL UNIQUE,
			detections INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS landmarks (
			id INTEGER PRIMARY KEY,
			seed_row INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			descriptor_kind INTEGER NOT NULL,
			descriptor BLOB NOT NULL,
			occurrences INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS observations (
			frame_id INTEGER NOT NULL REFERENCES frames(id),
			position INTEGER NOT NULL,
			landmark_id INTEGER NOT NULL REFERENCES landmarks(id),
			PRIMARY KEY (frame_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_observations_landmark ON observations(landmark_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Run identifies one export.
type Run struct {
	ID         string
	Checkpoint string
}

// Counts holds table row counts.
type Counts struct {
	Frames       int
	Landmarks    int
	Observations int
}

// Export replaces the database content with g in a single transaction.
func (d *DB) Export(ctx context.Context, run Run, g *graph.Graph) (Counts, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("graphdb: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"observations", "landmarks", "frames", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Counts{}, fmt.Errorf("graphdb: clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, checkpoint, created_at) VALUES (?, ?, ?)`,
		run.ID, run.Checkpoint, time.Now().Unix()); err != nil {
		return Counts{}, fmt.Errorf("graphdb: insert run: %w", err)
	}

	var c Counts
	if c.Landmarks, err = insertLandmarks(ctx, tx, g); err != nil {
		return Counts{}, err
	}
	if c.Frames, c.Observations, err = insertFrames(ctx, tx, g); err != nil {
		return Counts{}, err
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("graphdb: commit: %w", err)
	}
	return c, nil
}

func insertLandmarks(ctx context.Context, tx *sql.Tx, g *graph.Graph) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO landmarks (id, seed_row, x, y, z, descriptor_kind, descriptor, occurrences)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("graphdb: prepare landmarks: %w", err)
	}
	defer stmt.Close()

	n := 0
	for id, lm := range g.Landmarks() {
		if _, err := stmt.ExecContext(ctx, int64(id), lm.SeedRow,
			lm.Position[0], lm.Position[1], lm.Position[2],
			int(lm.Descriptor.Kind), descriptorBlob(lm.Descriptor), lm.NumOccurrences()); err != nil {
			return 0, fmt.Errorf("graphdb: insert landmark %d: %w", id, err)
		}
		n++
	}
	return n, nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, g *graph.Graph) (frames, observations int, err error) {
	frameStmt, err := tx.PrepareContext(ctx, `INSERT INTO frames (id, frame_index, detections) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("graphdb: prepare frames: %w", err)
	}
	defer frameStmt.Close()

	obsStmt, err := tx.PrepareContext(ctx, `INSERT INTO observations (frame_id, position, landmark_id) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("graphdb: prepare observations: %w", err)
	}
	defer obsStmt.Close()

	for id, f := range g.Frames() {
		// SQLite integers are signed 64-bit.
		if f.Index > math.MaxInt64 {
			return 0, 0, fmt.Errorf("graphdb: frame index %d overflows INTEGER", f.Index)
		}
		if _, err := frameStmt.ExecContext(ctx, int64(id), int64(f.Index), f.Len()); err != nil {
			return 0, 0, fmt.Errorf("graphdb: insert frame %d: %w", f.Index, err)
		}
		for pos, lm := range f.Landmarks() {
			if _, err := obsStmt.ExecContext(ctx, int64(id), pos, int64(lm)); err != nil {
				return 0, 0, fmt.Errorf("graphdb: insert observation %d/%d: %w", f.Index, pos, err)
			}
			observations++
		}
		frames++
	}
	return frames, observations, nil
}

// descriptorBlob stores binary rows as is and float rows as little-endian IEEE bits.
func descriptorBlob(d model.Descriptor) []byte {
	if d.Kind != model.KindFloat32 {
		return d.Bytes
	}
	b := make([]byte, 0, 4*len(d.Floats))
	for _, f := range d.Floats {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

// Counts returns the row counts of the exported tables.
func (d *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM frames),
			(SELECT COUNT(*) FROM landmarks),
			(SELECT COUNT(*) FROM observations)`).Scan(&c.Frames, &c.Landmarks, &c.Observations)
	if err != nil {
		return Counts{}, fmt.Errorf("graphdb: count: %w", err)
	}
	return c, nil
}

// Track returns the frame indices that observed a landmark, in frame order.
func (d *DB) Track(ctx context.Context, lm graph.LandmarkID) ([]uint64, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT f.frame_index FROM observations o
		JOIN frames f ON f.id = o.frame_id
		WHERE o.landmark_id = ?
		ORDER BY f.frame_index`, int64(lm))
	if err != nil {
		return nil, fmt.Errorf("graphdb: track %d: %w", lm, err)
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var idx int64
		if err := rows.Scan(&idx); err != nil {
			return nil, err
		}
		out = append(out, uint64(idx))
	}
	return out, rows.Err()
}

// LastRun returns the most recent export.
func (d *DB) LastRun(ctx context.Context) (Run, error) {
	var r Run
	var checkpoint sql.NullString
	err := d.db.QueryRowContext(ctx, `SELECT id, checkpoint FROM runs ORDER BY created_at DESC LIMIT 1`).
		Scan(&r.ID, &checkpoint)
	if err != nil {
		return Run{}, fmt.Errorf("graphdb: last run: %w", err)
	}
	r.Checkpoint = checkpoint.String
	return r, nil
}
