package memory

import "context"

// Document is a unit of knowledge the QA flow can retrieve as context.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store holds documents and returns the ones relevant to a query.
type Store interface {
	AddDocuments(context.Context, ...*Document) error
	Search(ctx context.Context, query string, limit int) ([]*Document, error)
}
