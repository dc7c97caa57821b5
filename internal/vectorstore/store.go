// ABOUTME: Narrow boundary to the external vector store
// ABOUTME: The knowledge layer only ever talks to this interface
package vectorstore

import "context"

// Document is the flat representation the vector store persists: an opaque
// id, the text blob that gets embedded, and string-only metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a document paired with its cosine similarity to a query, in [0,1].
type Result struct {
	Document
	Similarity float32
}

// Store is the full capability set the knowledge layer needs from the
// external vector store. Implementations must tolerate concurrent calls.
type Store interface {
	// Insert embeds and persists a new document.
	Insert(ctx context.Context, doc Document) error

	// UpdateMetadata replaces a document's metadata without re-embedding.
	// Returns apperr.ErrNotFound if the id is unknown.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error

	// Delete removes a document. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Get fetches a document by id. Returns apperr.ErrNotFound if absent.
	Get(ctx context.Context, id string) (Document, error)

	// Query runs a nearest-neighbor search over the embedded documents,
	// restricted to documents whose metadata matches every where entry.
	// Results come back ordered by descending similarity.
	Query(ctx context.Context, text string, limit int, where map[string]string) ([]Result, error)

	// Scan returns up to limit documents matching the where entries, in
	// stable insertion order. There is no offset; callers page client-side.
	Scan(ctx context.Context, where map[string]string, limit int) ([]Document, error)

	// Count reports the number of stored documents.
	Count(ctx context.Context) (int, error)

	Close() error
}
