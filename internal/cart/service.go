// internal/cart/service.go
package cart

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the cart service.
//
// Concurrent quantity updates on the same line are last-write-wins; there is
// no optimistic versioning on cart lines.
type Service interface {
	GetOrCreateCart(ctx context.Context, subject string) (uuid.UUID, error)
	AddItem(ctx context.Context, subject string, bookID uuid.UUID, quantity int) (*Line, error)
	GetCart(ctx context.Context, subject string) (*View, error)
	UpdateQuantity(ctx context.Context, subject string, lineID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, subject string, lineID uuid.UUID) error
	ClearCart(ctx context.Context, subject string) error
}
