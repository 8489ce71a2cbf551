package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docassist/internal/rag"
)

type fakeEngine struct {
	result rag.QueryResult
	err    error
	gotQ   rag.Query
}

func (f *fakeEngine) Answer(_ context.Context, q rag.Query) (rag.QueryResult, error) {
	f.gotQ = q
	return f.result, f.err
}

func TestQueryHandler(t *testing.T) {
	engine := &fakeEngine{
		result: rag.QueryResult{
			Answer:    "Tokens expire after 24 hours.",
			Sources:   []string{"auth.md"},
			Retrieved: []rag.RetrievedChunk{{ChunkID: "auth.md#0000", SourcePath: "auth.md", Score: 0.9, Rank: 1}},
		},
	}
	handler := NewQueryHandler(engine)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question": "How long do tokens last?", "k": 3}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.gotQ.Question != "How long do tokens last?" || engine.gotQ.K != 3 {
		t.Errorf("engine received query %+v", engine.gotQ)
	}

	var result rag.QueryResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Answer != engine.result.Answer || result.Refused {
		t.Errorf("response = %+v", result)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "auth.md" {
		t.Errorf("response sources = %v", result.Sources)
	}
}

func TestQueryHandlerRefusal(t *testing.T) {
	engine := &fakeEngine{
		result: rag.QueryResult{
			Refused:       true,
			RefusalReason: rag.ReasonNoRelevantContext,
			Sources:       []string{},
			Retrieved:     []rag.RetrievedChunk{},
		},
	}
	handler := NewQueryHandler(engine)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question": "What is the wifi password?"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Refusal is a valid outcome, not an HTTP error.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a refusal", rec.Code)
	}
	var result rag.QueryResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Refused || result.RefusalReason != rag.ReasonNoRelevantContext {
		t.Errorf("response = %+v", result)
	}
}

func TestQueryHandlerInvalidJSON(t *testing.T) {
	handler := NewQueryHandler(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQueryHandlerEmptyQuestion(t *testing.T) {
	handler := NewQueryHandler(&fakeEngine{err: rag.ErrEmptyQuestion})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question": ""}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQueryHandlerEngineError(t *testing.T) {
	handler := NewQueryHandler(&fakeEngine{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
