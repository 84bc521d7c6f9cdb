package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
)

// CustomerUsecase handles customer directory logic
type CustomerUsecase struct {
	directory repo.DirectoryRepo
}

// NewCustomerUsecase creates a new customer usecase
func NewCustomerUsecase(directory repo.DirectoryRepo) *CustomerUsecase {
	return &CustomerUsecase{directory: directory}
}

// Filter returns customers whose name or email contains term.
// status is one of all, online, offline, away ("" means all).
func (uc *CustomerUsecase) Filter(ctx context.Context, term, status string) ([]*domain.Customer, error) {
	var presence domain.Presence
	if status != "" && status != "all" {
		p, ok := domain.ParsePresence(status)
		if !ok {
			return nil, &domain.ValidationError{Field: "status", Message: "unknown status " + status}
		}
		presence = p
	}

	customers, err := uc.directory.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	t := strings.ToLower(strings.TrimSpace(term))
	result := make([]*domain.Customer, 0, len(customers))
	for _, c := range customers {
		if presence != "" && c.Status != presence {
			continue
		}
		if !strings.Contains(strings.ToLower(c.Name), t) && !strings.Contains(strings.ToLower(c.Email), t) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// Get returns one customer
func (uc *CustomerUsecase) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := uc.directory.GetCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}
