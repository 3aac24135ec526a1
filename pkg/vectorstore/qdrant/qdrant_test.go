package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
)

func setupServer(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{
		URL:        srv.URL,
		Collection: "segments",
		Dimensions: 3,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestNewStoreValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{Collection: "c", Dimensions: 3}},
		{"missing collection", Config{URL: "http://localhost:6333", Dimensions: 3}},
		{"bad dimensions", Config{URL: "http://localhost:6333", Collection: "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStore(tc.cfg); err == nil {
				t.Error("expected a config error")
			}
		})
	}
}

func TestEnsureReadyCreatesCollection(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	if err := store.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady failed: %v", err)
	}
	if gotPath != "PUT /collections/segments" {
		t.Errorf("request = %q", gotPath)
	}
	vectors := gotBody["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Errorf("vectors config = %v", vectors)
	}
}

func TestEnsureReadyTreatsConflictAsExisting(t *testing.T) {
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	if err := store.EnsureReady(context.Background()); err != nil {
		t.Errorf("existing collection must not be an error, got %v", err)
	}
}

func TestUpsertSendsPointsWithPayload(t *testing.T) {
	var gotBody struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wait") != "true" {
			t.Error("upsert must wait for durability")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	err := store.Upsert(context.Background(), []vectorstore.Document{
		{ID: "seg-1", Content: "hello", Source: "notes.txt", Position: 2, Embedding: []float32{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if len(gotBody.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(gotBody.Points))
	}
	p := gotBody.Points[0]
	if p.ID != "seg-1" || p.Payload["content"] != "hello" || p.Payload["source"] != "notes.txt" {
		t.Errorf("point = %+v", p)
	}
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid documents must not reach the server")
	})
	err := store.Upsert(context.Background(), []vectorstore.Document{
		{ID: "seg-1", Content: "hello", Embedding: []float32{1, 0}},
	})
	if err == nil {
		t.Error("expected a dimension error")
	}
}

func TestSearchDecodesResults(t *testing.T) {
	var gotReq map[string]any
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"id": "seg-1", "score": 0.91, "payload": map[string]any{"content": "alpha", "source": "a.txt", "position": 0}},
				{"id": "seg-2", "score": 0.77, "payload": map[string]any{"content": "beta", "source": "a.txt", "position": 1}},
			},
		})
	})

	results, err := store.Search(context.Background(), vectorstore.SearchQuery{
		Embedding: []float32{1, 0, 0},
		TopK:      3,
		MinScore:  0.5,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotReq["limit"] != float64(3) || gotReq["with_payload"] != true {
		t.Errorf("request = %v", gotReq)
	}
	if gotReq["score_threshold"] != 0.5 {
		t.Errorf("score_threshold = %v, want 0.5", gotReq["score_threshold"])
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Document.Content != "alpha" || results[0].Score != 0.91 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Document.Position != 1 {
		t.Errorf("results[1].Position = %d, want 1", results[1].Document.Position)
	}
}

func TestSearchPropagatesServerError(t *testing.T) {
	store := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := store.Search(context.Background(), vectorstore.SearchQuery{
		Embedding: []float32{1, 0, 0},
		TopK:      3,
	})
	if err == nil {
		t.Error("expected an error for a 500 response")
	}
}
