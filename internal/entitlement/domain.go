// internal/entitlement/domain.go
package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// Entitlement is durable proof that a subject may access a book's content.
// Rows are created when an order settles as completed (or by an
// administrative grant) and are never deleted in normal flow.
type Entitlement struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Authorization is the result of a successful ownership check. FileRef is
// the stored file reference for the book; it still needs ResolveSecurePath
// before anything is served from disk.
type Authorization struct {
	Subject string
	BookID  uuid.UUID
	FileRef string
}

// GrantedEvent is the ledger payload written when ownership is granted.
type GrantedEvent struct {
	EntitlementID uuid.UUID `json:"entitlement_id"`
	Subject       string    `json:"subject"`
	BookID        uuid.UUID `json:"book_id"`
}
