// ABOUTME: SQLite document index paired with the chromem collection
// ABOUTME: Answers identity lookups, filtered scans, and counts that chromem does not expose
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Claire-s-Monster/knowledge-store/internal/apperr"
	_ "github.com/mattn/go-sqlite3"
)

// documentIndex mirrors every document the collection holds. It is written in
// the same call path as the collection, never independently.
type documentIndex struct {
	db *sql.DB
}

func newDocumentIndex(path string) (*documentIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open document index: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id       TEXT PRIMARY KEY,
		content  TEXT NOT NULL,
		metadata TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create document index schema: %w", err)
	}

	return &documentIndex{db: db}, nil
}

func (ix *documentIndex) insert(ctx context.Context, doc Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO documents (id, content, metadata) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content=excluded.content, metadata=excluded.metadata
	`, doc.ID, doc.Content, meta)
	return err
}

func (ix *documentIndex) updateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	res, err := ix.db.ExecContext(ctx, "UPDATE documents SET metadata = ? WHERE id = ?", meta, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (ix *documentIndex) delete(ctx context.Context, id string) error {
	_, err := ix.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	return err
}

func (ix *documentIndex) get(ctx context.Context, id string) (Document, error) {
	var doc Document
	var meta []byte
	err := ix.db.QueryRowContext(ctx,
		"SELECT id, content, metadata FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Content, &meta)
	if err == sql.ErrNoRows {
		return Document{}, fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
		return Document{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return doc, nil
}

// whereClause renders metadata equality conditions as json_extract predicates.
func whereClause(where map[string]string) (string, []any) {
	if len(where) == 0 {
		return "", nil
	}
	var conds []string
	var args []any
	for key, val := range where {
		conds = append(conds, "json_extract(metadata, '$.' || ?) = ?")
		args = append(args, key, val)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (ix *documentIndex) scan(ctx context.Context, where map[string]string, limit int) ([]Document, error) {
	clause, args := whereClause(where)
	query := "SELECT id, content, metadata FROM documents" + clause + " ORDER BY rowid LIMIT ?"
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var meta []byte
		if err := rows.Scan(&doc.ID, &doc.Content, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (ix *documentIndex) count(ctx context.Context, where map[string]string) (int, error) {
	clause, args := whereClause(where)
	var n int
	err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+clause, args...).Scan(&n)
	return n, err
}

func (ix *documentIndex) close() error {
	return ix.db.Close()
}
