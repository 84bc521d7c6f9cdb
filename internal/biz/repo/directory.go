package repo

import (
	"context"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// DirectoryRepo supplies customers, starting conversations and analytics figures
type DirectoryRepo interface {
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)

	// GetCustomer returns nil, nil when the customer does not exist
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)

	// Conversations returns fresh copies of the seeded conversations
	Conversations(ctx context.Context) ([]*domain.Conversation, error)

	// KnowledgeSeed returns the items the knowledge store starts with
	KnowledgeSeed(ctx context.Context) ([]*domain.KnowledgeItem, error)

	Analytics(ctx context.Context) (*domain.AnalyticsSeed, error)
}
