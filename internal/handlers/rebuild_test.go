package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docassist/internal/indexer"
	"docassist/internal/vectorindex"
)

type fakeRebuilder struct {
	ix      *vectorindex.Index
	err     error
	gotPath string
}

func (f *fakeRebuilder) Rebuild(_ context.Context, corpusPath string) (*vectorindex.Index, error) {
	f.gotPath = corpusPath
	return f.ix, f.err
}

func builtIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	ix, err := vectorindex.NewFromRows("build-xyz", 2,
		[]vectorindex.Entry{{ID: "a.md#0000", SourcePath: "a.md", Text: "body"}},
		[][]float32{{1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestRebuildHandler(t *testing.T) {
	builder := &fakeRebuilder{ix: builtIndex(t)}
	handler := NewRebuildHandler(builder, "/data/docs")

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", strings.NewReader(""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if builder.gotPath != "/data/docs" {
		t.Errorf("builder received corpus path %q, want configured default", builder.gotPath)
	}

	var resp RebuildResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.BuildID != "build-xyz" || resp.Chunks != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestRebuildHandlerCustomCorpusPath(t *testing.T) {
	builder := &fakeRebuilder{ix: builtIndex(t)}
	handler := NewRebuildHandler(builder, "/data/docs")

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild",
		strings.NewReader(`{"corpus_path": "/tmp/other-docs"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if builder.gotPath != "/tmp/other-docs" {
		t.Errorf("builder received corpus path %q, want request override", builder.gotPath)
	}
}

func TestRebuildHandlerConflict(t *testing.T) {
	handler := NewRebuildHandler(&fakeRebuilder{err: indexer.ErrBuildInProgress}, "/data/docs")

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", strings.NewReader(""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRebuildHandlerBuildFailed(t *testing.T) {
	handler := NewRebuildHandler(&fakeRebuilder{err: indexer.ErrBuildFailed}, "/data/docs")

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", strings.NewReader(""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRebuildHandlerInvalidJSON(t *testing.T) {
	handler := NewRebuildHandler(&fakeRebuilder{ix: builtIndex(t)}, "/data/docs")

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
