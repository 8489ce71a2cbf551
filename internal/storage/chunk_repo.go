package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ChunkRecord is the persisted form of one chunk's metadata.
// Ord is the chunk's row in the binary vector store.
type ChunkRecord struct {
	Ord            int
	ID             string
	SourcePath     string
	SectionHeading string
	StartOffset    int
	EndOffset      int
	Text           string
}

// Manifest identifies one index build.
type Manifest struct {
	BuildID    string
	Model      string
	Dim        int
	ChunkCount int
	BuiltAt    time.Time
}

// ChunkRepo provides chunk metadata persistence operations.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// DB returns the underlying database connection.
func (r *ChunkRepo) DB() *sql.DB {
	return r.db
}

// InsertBatch writes all chunk records in one transaction, preserving their
// ordinals. The sidecar is write-once per build, so there is no upsert path.
func (r *ChunkRepo) InsertBatch(ctx context.Context, records []ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (ord, id, source_path, section_heading, start_offset, end_offset, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Ord, rec.ID, rec.SourcePath, rec.SectionHeading,
			rec.StartOffset, rec.EndOffset, rec.Text,
		); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ListAll returns every chunk record in ordinal order.
func (r *ChunkRepo) ListAll(ctx context.Context) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ord, id, source_path, section_heading, start_offset, end_offset, text
		 FROM chunks ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.Ord, &rec.ID, &rec.SourcePath, &rec.SectionHeading,
			&rec.StartOffset, &rec.EndOffset, &rec.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// GetByID returns the chunk record with the given id.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var rec ChunkRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT ord, id, source_path, section_heading, start_offset, end_offset, text
		 FROM chunks WHERE id = ?`, id).
		Scan(&rec.Ord, &rec.ID, &rec.SourcePath, &rec.SectionHeading,
			&rec.StartOffset, &rec.EndOffset, &rec.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &rec, nil
}

// SaveManifest stores the build manifest, replacing any previous one.
func (r *ChunkRepo) SaveManifest(ctx context.Context, m Manifest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO manifest (rowid_guard, build_id, model, dim, chunk_count, built_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(rowid_guard) DO UPDATE SET
		   build_id = excluded.build_id,
		   model = excluded.model,
		   dim = excluded.dim,
		   chunk_count = excluded.chunk_count,
		   built_at = excluded.built_at`,
		m.BuildID, m.Model, m.Dim, m.ChunkCount, m.BuiltAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// GetManifest returns the build manifest.
func (r *ChunkRepo) GetManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	var builtAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT build_id, model, dim, chunk_count, built_at FROM manifest WHERE rowid_guard = 1`).
		Scan(&m.BuildID, &m.Model, &m.Dim, &m.ChunkCount, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, builtAt); err == nil {
		m.BuiltAt = t
	}
	return &m, nil
}
