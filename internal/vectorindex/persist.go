package vectorindex

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docassist/internal/storage"
)

const (
	// VectorsFile holds the row-major fixed-dim float32 vectors; row order
	// equals chunk ordinal order in the sidecar.
	VectorsFile = "vectors.bin"
	// SidecarFile is the SQLite metadata sidecar (chunks + manifest).
	SidecarFile = "chunks.db"

	vectorsMagic   uint32 = 0x44415649 // "DAVI"
	vectorsVersion uint32 = 1
)

// Save persists both index artifacts into dir. Each artifact is written to
// a temporary name and renamed into place only after both writes succeed,
// so a crashed build never leaves a half-written index behind.
func Save(ctx context.Context, dir string, ix *Index, model string) error {
	vecTmp := filepath.Join(dir, VectorsFile+".tmp")
	dbTmp := filepath.Join(dir, SidecarFile+".tmp")

	if err := writeVectors(vecTmp, ix); err != nil {
		return fmt.Errorf("failed to write vector store: %w", err)
	}
	if err := writeSidecar(ctx, dbTmp, ix, model); err != nil {
		_ = os.Remove(vecTmp)
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}

	if err := os.Rename(vecTmp, filepath.Join(dir, VectorsFile)); err != nil {
		_ = os.Remove(vecTmp)
		_ = os.Remove(dbTmp)
		return fmt.Errorf("failed to install vector store: %w", err)
	}
	if err := os.Rename(dbTmp, filepath.Join(dir, SidecarFile)); err != nil {
		_ = os.Remove(dbTmp)
		return fmt.Errorf("failed to install metadata sidecar: %w", err)
	}
	return nil
}

// Load reads both artifacts from dir and reconstructs the index snapshot.
// A missing index directory content surfaces as an fs.ErrNotExist error so
// callers can start with an empty index instead.
func Load(ctx context.Context, dir string) (*Index, error) {
	vectors, dim, err := readVectors(filepath.Join(dir, VectorsFile))
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(filepath.Join(dir, SidecarFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata sidecar: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := storage.NewChunkRepo(db)
	manifest, err := repo.GetManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	records, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk metadata: %w", err)
	}

	if len(records) != len(vectors) {
		return nil, fmt.Errorf("sidecar has %d chunks but vector store has %d rows", len(records), len(vectors))
	}
	if manifest.Dim != dim {
		return nil, fmt.Errorf("manifest dimension %d does not match vector store dimension %d", manifest.Dim, dim)
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{
			ID:             rec.ID,
			SourcePath:     rec.SourcePath,
			SectionHeading: rec.SectionHeading,
			StartOffset:    rec.StartOffset,
			EndOffset:      rec.EndOffset,
			Text:           rec.Text,
		}
	}

	return NewFromRows(manifest.BuildID, dim, entries, vectors)
}

func writeVectors(path string, ix *Index) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	header := []uint32{vectorsMagic, vectorsVersion, uint32(ix.dim), uint32(len(ix.vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			_ = f.Close()
			return err
		}
	}
	for _, row := range ix.vectors {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			_ = f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readVectors(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = f.Close()
	}()
	r := bufio.NewReader(f)

	var magic, version, dim, count uint32
	for _, p := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, 0, fmt.Errorf("failed to read vector store header: %w", err)
		}
	}
	if magic != vectorsMagic {
		return nil, 0, fmt.Errorf("not a vector store file: bad magic %#x", magic)
	}
	if version != vectorsVersion {
		return nil, 0, fmt.Errorf("unsupported vector store version %d", version)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, 0, fmt.Errorf("failed to read vector row %d: %w", i, err)
		}
		vectors[i] = row
	}
	return vectors, int(dim), nil
}

func writeSidecar(ctx context.Context, path string, ix *Index, model string) error {
	// A leftover tmp sidecar from a failed build would confuse the insert.
	_ = os.Remove(path)

	db, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return err
	}

	repo := storage.NewChunkRepo(db)
	records := make([]storage.ChunkRecord, len(ix.entries))
	for i, e := range ix.entries {
		records[i] = storage.ChunkRecord{
			Ord:            i,
			ID:             e.ID,
			SourcePath:     e.SourcePath,
			SectionHeading: e.SectionHeading,
			StartOffset:    e.StartOffset,
			EndOffset:      e.EndOffset,
			Text:           e.Text,
		}
	}
	if err := repo.InsertBatch(ctx, records); err != nil {
		return err
	}

	return repo.SaveManifest(ctx, storage.Manifest{
		BuildID:    ix.buildID,
		Model:      model,
		Dim:        ix.dim,
		ChunkCount: len(ix.entries),
		BuiltAt:    time.Now().UTC(),
	})
}
