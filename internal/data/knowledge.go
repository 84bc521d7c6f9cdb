package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// DefaultKnowledgeDSN keeps the knowledge base in memory for the process lifetime
const DefaultKnowledgeDSN = "file:knowledge?mode=memory&cache=shared"

// knowledgeRepo implements the knowledge repository on sqlite
type knowledgeRepo struct {
	db *sql.DB
}

// NewKnowledgeRepo opens the knowledge store and seeds it when empty
func NewKnowledgeRepo(ctx context.Context, dsn string, seed []*domain.KnowledgeItem) (repo.KnowledgeRepo, error) {
	if dsn == "" {
		dsn = DefaultKnowledgeDSN
	}
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps in-memory databases alive and serializes writers
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS knowledge_items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			updated_at INTEGER NOT NULL,
			seq INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_knowledge_seq ON knowledge_items(seq)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	r := &knowledgeRepo{db: db}
	if err := r.seed(ctx, seed); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

func (r *knowledgeRepo) seed(ctx context.Context, items []*domain.KnowledgeItem) error {
	if len(items) == 0 {
		return nil
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_items`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count knowledge: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	for i, item := range items {
		tags, err := json.Marshal(nonNilTags(item.Tags))
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO knowledge_items (id, title, content, category, tags, updated_at, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.Title, item.Content, string(item.Category), string(tags), item.UpdatedAt.UnixMilli(), i)
		if err != nil {
			return fmt.Errorf("failed to seed knowledge %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// List returns every item, newest created first
func (r *knowledgeRepo) List(ctx context.Context) ([]*domain.KnowledgeItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, category, tags, updated_at
		FROM knowledge_items
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	defer rows.Close()

	var items []*domain.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKnowledge(row rowScanner) (*domain.KnowledgeItem, error) {
	var item domain.KnowledgeItem
	var category, tags string
	var updatedAt int64
	if err := row.Scan(&item.ID, &item.Title, &item.Content, &category, &tags, &updatedAt); err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)
	item.UpdatedAt = time.UnixMilli(updatedAt)
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of %s: %w", item.ID, err)
	}
	return &item, nil
}

// Get gets an item by ID
func (r *knowledgeRepo) Get(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, content, category, tags, updated_at
		FROM knowledge_items
		WHERE id = ?
	`, id)

	item, err := scanKnowledge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	return item, nil
}

// Create inserts a new item ahead of all existing ones
func (r *knowledgeRepo) Create(ctx context.Context, item *domain.KnowledgeItem) error {
	tags, err := json.Marshal(nonNilTags(item.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO knowledge_items (id, title, content, category, tags, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MIN(seq), 0) - 1 FROM knowledge_items))
	`, item.ID, item.Title, item.Content, string(item.Category), string(tags), item.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create knowledge: %w", err)
	}
	return nil
}

// Update replaces an item in place
func (r *knowledgeRepo) Update(ctx context.Context, item *domain.KnowledgeItem) (bool, error) {
	tags, err := json.Marshal(nonNilTags(item.Tags))
	if err != nil {
		return false, fmt.Errorf("failed to encode tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE knowledge_items
		SET title = ?, content = ?, category = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, item.Title, item.Content, string(item.Category), string(tags), item.UpdatedAt.UnixMilli(), item.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update knowledge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update knowledge: %w", err)
	}
	return n > 0, nil
}

// Delete deletes an item
func (r *knowledgeRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM knowledge_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete knowledge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete knowledge: %w", err)
	}
	return n > 0, nil
}

// Close closes the database connection
func (r *knowledgeRepo) Close() error {
	return r.db.Close()
}
