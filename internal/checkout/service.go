// internal/checkout/service.go
package checkout

import (
	"context"
)

// Service defines the interface for the checkout service.
type Service interface {
	// CreateOrder turns the subject's cart into an order: prices are
	// recomputed from the catalog, payment is attempted once, and the cart
	// is cleared only when payment completes.
	CreateOrder(ctx context.Context, subject string, input Input) (*Result, error)

	// GetOrder looks an order up by number for its owner. The predicate
	// includes the subject, so another subject's order reads as absent.
	GetOrder(ctx context.Context, orderNumber, subject string) (*Detail, error)

	// ListOrders returns the subject's orders, newest first.
	ListOrders(ctx context.Context, subject string, limit int) ([]*Order, error)
}
