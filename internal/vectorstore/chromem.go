// ABOUTME: chromem-go implementation of the Store interface
// ABOUTME: The collection answers similarity, the SQLite index answers identity and scans
package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/apperr"
)

// Options configures the chromem-backed store.
type Options struct {
	// DataDir holds both the chromem persistence directory and the
	// document index database.
	DataDir    string
	Collection string
	Embedding  chromem.EmbeddingFunc
}

// ChromemStore persists documents in an embedded chromem-go collection and
// mirrors them into a SQLite index for enumeration. chromem owns embedding
// generation, similarity search, and vector persistence.
type ChromemStore struct {
	collection *chromem.Collection
	index      *documentIndex
	log        *zap.Logger
}

// NewChromemStore opens (or creates) the persistent collection and its
// document index under opts.DataDir.
func NewChromemStore(opts Options, log *zap.Logger) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(opts.DataDir, "chromem"), true)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}

	collection, err := db.GetOrCreateCollection(opts.Collection, nil, opts.Embedding)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}

	index, err := newDocumentIndex(filepath.Join(opts.DataDir, "index.db"))
	if err != nil {
		return nil, err
	}

	log.Info("vector store opened",
		zap.String("collection", opts.Collection),
		zap.Int("entry_count", collection.Count()),
	)

	return &ChromemStore{collection: collection, index: index, log: log}, nil
}

func (s *ChromemStore) Insert(ctx context.Context, doc Document) error {
	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	if err := s.index.insert(ctx, doc); err != nil {
		// Keep collection and index aligned; the document is unreachable
		// through Scan anyway if this rollback fails.
		if delErr := s.collection.Delete(ctx, nil, nil, doc.ID); delErr != nil {
			s.log.Error("index insert rollback failed",
				zap.String("id", doc.ID), zap.Error(delErr))
		}
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

func (s *ChromemStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	existing, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}

	// Re-adding with the stored embedding replaces metadata without
	// touching the vector or calling the embedder.
	err = s.collection.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   existing.Content,
		Embedding: existing.Embedding,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	return s.index.updateMetadata(ctx, id, metadata)
}

func (s *ChromemStore) Delete(ctx context.Context, id string) error {
	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return s.index.delete(ctx, id)
}

func (s *ChromemStore) Get(ctx context.Context, id string) (Document, error) {
	return s.index.get(ctx, id)
}

func (s *ChromemStore) Query(ctx context.Context, text string, limit int, where map[string]string) ([]Result, error) {
	// chromem rejects nResults beyond the matching document count.
	matching, err := s.index.count(ctx, where)
	if err != nil {
		return nil, err
	}
	if limit > matching {
		limit = matching
	}
	if limit <= 0 {
		return nil, nil
	}

	res, err := s.collection.Query(ctx, text, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]Result, 0, len(res))
	for _, r := range res {
		results = append(results, Result{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

func (s *ChromemStore) Scan(ctx context.Context, where map[string]string, limit int) ([]Document, error) {
	return s.index.scan(ctx, where, limit)
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.index.count(ctx, nil)
}

func (s *ChromemStore) Close() error {
	return s.index.close()
}
