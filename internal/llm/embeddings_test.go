package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestEmbedTextsAppliesRolePrefix(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		wantPrefix string
	}{
		{name: "query role", role: RoleQuery, wantPrefix: "query: "},
		{name: "passage role", role: RolePassage, wantPrefix: "passage: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq EmbeddingsRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
					t.Errorf("unexpected Authorization header %q", auth)
				}
				if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				writeEmbeddings(w, len(gotReq.Input), 3)
			}))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 3, 5*time.Second)
			vectors, err := client.EmbedTexts(context.Background(), []string{"how do tokens work", "second text"}, tt.role)
			if err != nil {
				t.Fatalf("EmbedTexts() error = %v", err)
			}

			want := []string{tt.wantPrefix + "how do tokens work", tt.wantPrefix + "second text"}
			if !reflect.DeepEqual(gotReq.Input, want) {
				t.Errorf("request input = %v, want %v", gotReq.Input, want)
			}
			if gotReq.Model != "test-model" {
				t.Errorf("request model = %q", gotReq.Model)
			}
			if len(vectors) != 2 || len(vectors[0]) != 3 {
				t.Errorf("EmbedTexts() returned %d vectors of size %d", len(vectors), len(vectors[0]))
			}
		})
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://unused", "", "m", 3, time.Second)
	if _, err := client.EmbedTexts(context.Background(), nil, RoleQuery); err == nil {
		t.Error("EmbedTexts() expected error for empty input")
	}
}

func TestEmbedTextsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "m", 3, 5*time.Second)
	_, err := client.EmbedTexts(context.Background(), []string{"q"}, RoleQuery)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("EmbedTexts() error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedTextsUnreachableServer(t *testing.T) {
	client := NewEmbeddingsClient("http://127.0.0.1:1", "", "m", 3, time.Second)
	_, err := client.EmbedTexts(context.Background(), []string{"q"}, RoleQuery)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("EmbedTexts() error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedTextsSizeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, 1, 4)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "m", 3, 5*time.Second)
	_, err := client.EmbedTexts(context.Background(), []string{"q"}, RoleQuery)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("EmbedTexts() error = %v, want ErrEmbeddingUnavailable for size mismatch", err)
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, 1, 3)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "m", 3, 5*time.Second)
	_, err := client.EmbedTexts(context.Background(), []string{"a", "b"}, RolePassage)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("EmbedTexts() error = %v, want ErrEmbeddingUnavailable for count mismatch", err)
	}
}

func writeEmbeddings(w http.ResponseWriter, count, dim int) {
	resp := EmbeddingsResponse{Data: make([]EmbeddingData, count)}
	for i := range resp.Data {
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = float64(i*dim+j) * 0.1
		}
		resp.Data[i] = EmbeddingData{Embedding: vec}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
