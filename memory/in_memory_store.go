package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/go-kratos/qaeval/dataset"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents []*Document
	// terms[i] holds the words of documents[i]
	terms []map[string]struct{}
}

// NewInMemoryStore creates a new instance of InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make([]*Document, 0),
	}
}

// LoadFile creates a store from a JSON-lines file of documents.
func LoadFile(ctx context.Context, path string) (*InMemoryStore, error) {
	docs, err := dataset.Read[*Document](path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}
	store := NewInMemoryStore()
	if err := store.AddDocuments(ctx, docs...); err != nil {
		return nil, err
	}
	return store, nil
}

// Len returns the number of stored documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// AddDocuments adds documents to the in-memory store.
func (s *InMemoryStore) AddDocuments(ctx context.Context, docs ...*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.documents = append(s.documents, doc)
		s.terms = append(s.terms, terms(doc.Content))
	}
	return nil
}

// Search returns up to limit documents ranked by how many distinct query
// words they contain as whole words. Stop words in the query are ignored and
// documents matching no word are omitted.
func (s *InMemoryStore) Search(ctx context.Context, query string, limit int) ([]*Document, error) {
	words := tokenize(query)
	if len(words) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	type hit struct {
		doc   *Document
		score int
	}
	var hits []hit
	for i, doc := range s.documents {
		score := 0
		for _, word := range words {
			if _, ok := s.terms[i][word]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{doc: doc, score: score})
		}
	}
	// stable keeps insertion order between equal scores
	slices.SortStableFunc(hits, func(a, b hit) int {
		return b.score - a.score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]*Document, 0, len(hits))
	for _, h := range hits {
		results = append(results, h.doc)
	}
	return results, nil
}

var stopWords = map[string]struct{}{
	"about": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "can": {}, "did": {}, "do": {}, "does": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "how": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "their": {}, "there": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

func split(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func terms(text string) map[string]struct{} {
	fields := split(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// tokenize lowercases a query and splits it into distinct search words,
// dropping punctuation, stop words and single letters. Numbers are kept
// whatever their length.
func tokenize(text string) []string {
	fields := split(text)
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := stopWords[f]; ok {
			continue
		}
		if len([]rune(f)) < 2 && !isNumber(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return s != ""
}
