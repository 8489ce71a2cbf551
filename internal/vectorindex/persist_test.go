package vectorindex

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ix := testIndex(t)

	if err := Save(ctx, dir, ix, "test-embedding-model"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(ctx, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.BuildID() != ix.BuildID() || loaded.Len() != ix.Len() || loaded.Dim() != ix.Dim() {
		t.Errorf("Load() = (%s, %d, %d), want (%s, %d, %d)",
			loaded.BuildID(), loaded.Len(), loaded.Dim(),
			ix.BuildID(), ix.Len(), ix.Dim())
	}

	for _, id := range []string{"auth.md#0000", "auth.md#0001", "deploy.md#0000"} {
		want, _ := ix.Get(id)
		got, ok := loaded.Get(id)
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("Load() entry %s = %+v, want %+v", id, got, want)
		}
	}

	// Identical queries must rank identically before and after persistence.
	query := []float32{0.2, 0.9, 0.1}
	if got, want := loaded.Search(query, 3), ix.Search(query, 3); !reflect.DeepEqual(got, want) {
		t.Errorf("Load() search results = %v, want %v", got, want)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Save(context.Background(), dir, testIndex(t), "m"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	names, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{VectorsFile: true, SidecarFile: true}
	for _, e := range names {
		if !want[e.Name()] {
			t.Errorf("unexpected file %q left in index dir", e.Name())
		}
	}
	if len(names) != 2 {
		t.Errorf("index dir has %d files, want 2", len(names))
	}
}

func TestLoadMissingIndex(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() on empty dir error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, VectorsFile), []byte("not a vector store at all"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(context.Background(), dir); err == nil {
		t.Error("Load() expected error for corrupt vector store")
	}
}

func TestLoadRejectsRowCountMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := Save(ctx, dir, testIndex(t), "m"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Truncate the vector store to fewer rows than the sidecar records.
	smaller, err := NewFromRows("build-x", 3,
		[]Entry{{ID: "auth.md#0000"}}, [][]float32{{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if err := writeVectors(filepath.Join(dir, VectorsFile), smaller); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(ctx, dir); err == nil {
		t.Error("Load() expected error when sidecar and vector store disagree")
	}
}
