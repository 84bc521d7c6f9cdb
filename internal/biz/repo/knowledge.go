package repo

import (
	"context"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// KnowledgeRepo is the knowledge base storage interface
type KnowledgeRepo interface {
	// List returns every item in stored order (newest created first)
	List(ctx context.Context) ([]*domain.KnowledgeItem, error)

	// Get returns nil, nil when the item does not exist
	Get(ctx context.Context, id string) (*domain.KnowledgeItem, error)

	// Create stores a new item; the item must carry its ID
	Create(ctx context.Context, item *domain.KnowledgeItem) error

	// Update replaces an existing item in place, returns false if missing
	Update(ctx context.Context, item *domain.KnowledgeItem) (bool, error)

	// Delete removes an item, returns false if missing
	Delete(ctx context.Context, id string) (bool, error)

	Close() error
}
