package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	if store == nil {
		t.Fatalf("NewInMemoryStore() returned nil")
	}
	if store.Len() != 0 {
		t.Errorf("InMemoryStore should be empty initially")
	}
}

func TestInMemoryStoreAddDocuments(t *testing.T) {
	store := NewInMemoryStore()
	err := store.AddDocuments(context.Background(),
		&Document{ID: "1", Content: "Hello, world!"},
		&Document{ID: "2", Content: "Goodbye, world!"},
	)
	if err != nil {
		t.Errorf("AddDocuments() returned error: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 documents, got %d", store.Len())
	}
}

func TestInMemoryStoreSearch(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	docs := []*Document{
		{ID: "greeting", Content: "Hello, world!"},
		{ID: "farewell", Content: "Goodbye, world!"},
		{ID: "universe", Content: "Hello, universe! Hello again, world."},
		{ID: "other", Content: "Nothing relevant here."},
	}
	if err := store.AddDocuments(ctx, docs...); err != nil {
		t.Fatalf("AddDocuments() returned error: %v", err)
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"ranked by matches", "hello world", 0, []string{"greeting", "universe", "farewell"}},
		{"limited", "hello world", 1, []string{"greeting"}},
		{"case insensitive", "GOODBYE", 0, []string{"farewell"}},
		{"no match", "zebra", 0, nil},
		{"punctuation only", "?!", 0, nil},
		{"whole words only", "hell", 0, nil},
		{"stop words ignored", "what is the", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(ctx, tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Search() returned error: %v", err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("Search() returned %d documents, want %d", len(results), len(tt.want))
			}
			for i, doc := range results {
				if doc.ID != tt.want[i] {
					t.Errorf("Search()[%d] = %v, want %v", i, doc.ID, tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.jsonl")
	content := `{"id":"a","content":"Two plus two equals four."}
{"id":"b","content":"Paris is the capital of France.","metadata":{"source":"atlas"}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Expected 2 documents, got %d", store.Len())
	}
	results, _ := store.Search(context.Background(), "capital of France", 3)
	if len(results) != 1 || results[0].ID != "b" {
		t.Errorf("Search() = %v, want [b]", results)
	}
	if results[0].Metadata["source"] != "atlas" {
		t.Errorf("Metadata[source] = %v, want atlas", results[0].Metadata["source"])
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("What is the TrailMaster X4 tent? What IS 2+2, a tent?")
	want := []string{"trailmaster", "x4", "tent", "2"}
	if len(got) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSearchSkipsWordFragments(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.AddDocuments(ctx,
		&Document{ID: "this", Content: "This tent sleeps four."},
		&Document{ID: "math", Content: "2+2 equals 4."},
	)
	// "is" occurs inside "This" but is not a word of it
	results, err := store.Search(ctx, "Is 2+2?", 0)
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "math" {
		t.Fatalf("Search() = %v, want [math]", results)
	}
	results, _ = store.Search(ctx, "is", 0)
	if len(results) != 0 {
		t.Errorf("Search(is) = %v, want none", results)
	}
}
