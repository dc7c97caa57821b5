// ABOUTME: Tests for embedding provider selection and the Ollama HTTP client
// ABOUTME: The Ollama path runs against a local httptest server

package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewEmbedding_ProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{"openai with key", "openai", "sk-test", false},
		{"openai without key", "openai", "", true},
		{"ollama", "ollama", "", false},
		{"unknown provider", "cohere", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := NewEmbedding(tt.provider, "some-model", tt.apiKey, "http://localhost:11434/api/embed")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fn == nil {
				t.Error("expected embedding function, got nil")
			}
		})
	}
}

func TestNewOllamaEmbedding(t *testing.T) {
	var gotReq ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	embed := NewOllamaEmbedding(srv.URL, "nomic-embed-text")
	vec, err := embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}

	if gotReq.Model != "nomic-embed-text" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Input != "hello world" {
		t.Errorf("input = %q", gotReq.Input)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vec = %v", vec)
	}
}

func TestNewOllamaEmbedding_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	embed := NewOllamaEmbedding(srv.URL, "missing-model")
	if _, err := embed(context.Background(), "text"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestNewOllamaEmbedding_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer srv.Close()

	embed := NewOllamaEmbedding(srv.URL, "some-model")
	if _, err := embed(context.Background(), "text"); err == nil {
		t.Error("expected error for empty embeddings")
	}
}
