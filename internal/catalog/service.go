// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*Book, error)
	Search(ctx context.Context, params SearchParams) ([]*Book, int, error)
}
