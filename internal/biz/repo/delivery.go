package repo

import (
	"context"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// DeliveryRepo is the outbound message transport interface
type DeliveryRepo interface {
	// Deliver pushes an agent message to the customer.
	// A nil error means sent; any error means failed.
	Deliver(ctx context.Context, conversationID string, msg domain.Message) error
}
