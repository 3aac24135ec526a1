package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(3)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func doc(id string, embedding []float32) vectorstore.Document {
	return vectorstore.Document{ID: id, Content: "content " + id, Embedding: embedding}
}

func TestNewStoreRejectsBadDimension(t *testing.T) {
	if _, err := NewStore(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewStore(-3); err == nil {
		t.Error("expected error for negative dimensions")
	}
}

func TestUpsertValidatesDocuments(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	cases := []struct {
		name string
		doc  vectorstore.Document
	}{
		{"empty id", vectorstore.Document{Content: "x", Embedding: []float32{1, 0, 0}}},
		{"empty content", vectorstore.Document{ID: "a", Embedding: []float32{1, 0, 0}}},
		{"wrong dimension", doc("a", []float32{1, 0})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.Upsert(ctx, []vectorstore.Document{tc.doc}); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, []vectorstore.Document{doc("a", []float32{1, 0, 0})}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	updated := vectorstore.Document{ID: "a", Content: "updated", Embedding: []float32{0, 1, 0}}
	if err := store.Upsert(ctx, []vectorstore.Document{updated}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	results, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{0, 1, 0}, TopK: 1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Document.Content != "updated" {
		t.Errorf("results = %+v, want the updated document", results)
	}
}

func TestSearchOrdersByDescendingScore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []vectorstore.Document{
		doc("far", []float32{0, 1, 0}),
		doc("near", []float32{1, 0.1, 0}),
		doc("exact", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results out of order at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Document.ID != "exact" {
		t.Errorf("best match = %s, want exact", results[0].Document.ID)
	}
}

func TestSearchFiltersByMinScore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []vectorstore.Document{
		doc("orthogonal", []float32{0, 1, 0}),
		doc("aligned", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := store.Search(ctx, vectorstore.SearchQuery{
		Embedding: []float32{1, 0, 0},
		TopK:      5,
		MinScore:  0.5,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (orthogonal match filtered)", len(results))
	}
	if results[0].Document.ID != "aligned" {
		t.Errorf("match = %s, want aligned", results[0].Document.ID)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// All documents share the same vector, so every score ties.
	docs := make([]vectorstore.Document, 4)
	for i := range docs {
		docs[i] = doc(fmt.Sprintf("d%d", i), []float32{1, 0, 0})
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 4})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i, r := range results {
		want := fmt.Sprintf("d%d", i)
		if r.Document.ID != want {
			t.Errorf("results[%d].ID = %s, want %s", i, r.Document.ID, want)
		}
	}
}

func TestSearchLimitsToTopK(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	docs := make([]vectorstore.Document, 10)
	for i := range docs {
		docs[i] = doc(fmt.Sprintf("d%d", i), []float32{1, float32(i) * 0.01, 0})
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestSearchRejectsBadQuery(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0}, TopK: 3}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 0}); err == nil {
		t.Error("expected topK error")
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Close()

	if err := store.EnsureReady(ctx); err == nil {
		t.Error("EnsureReady on closed store must fail")
	}
	if err := store.Upsert(ctx, []vectorstore.Document{doc("a", []float32{1, 0, 0})}); err == nil {
		t.Error("Upsert on closed store must fail")
	}
	if _, err := store.Search(ctx, vectorstore.SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 1}); err == nil {
		t.Error("Search on closed store must fail")
	}
}
