// internal/entitlement/service.go
package entitlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"inkvault/internal/catalog"
)

// Service defines the interface for the entitlement service (the DRM gate).
type Service interface {
	// Grant records ownership of a book. A duplicate (subject, book) pair is
	// rejected with a conflict, never a raw storage error.
	Grant(ctx context.Context, subject string, bookID uuid.UUID) (*Entitlement, error)

	// GrantInTx is Grant participating in the caller's transaction; the
	// checkout settlement uses it so entitlements commit with the order.
	GrantInTx(ctx context.Context, tx *sqlx.Tx, subject string, bookID uuid.UUID) (*Entitlement, error)

	// Authorize is the ownership check performed before releasing content.
	Authorize(ctx context.Context, subject string, bookID uuid.UUID) (*Authorization, error)

	// ResolveSecurePath turns an authorization into an on-disk path under
	// baseDir, defeating traversal payloads in the stored reference.
	ResolveSecurePath(auth *Authorization, baseDir string) (string, error)

	Owns(ctx context.Context, subject string, bookID uuid.UUID) (bool, error)
	ListOwned(ctx context.Context, subject string) ([]*catalog.Book, error)
}
