// internal/cart/domain.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantityPerItem caps how many copies of one book a cart may hold.
const MaxQuantityPerItem = 10

// Cart is one subject's cart, created lazily on first add.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"-" db:"subject"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Line is one (book, quantity) pairing within a cart. PriceSnapshot is the
// catalog price at the moment the book was first added; it is display data
// only and never used for billing.
type Line struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CartID        uuid.UUID       `json:"-" db:"cart_id"`
	BookID        uuid.UUID       `json:"book_id" db:"book_id"`
	Title         string          `json:"title" db:"title"`
	Author        string          `json:"author" db:"author"`
	Quantity      int             `json:"quantity" db:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price" db:"price_snapshot"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"-"`
}

// View is the cart snapshot returned to clients. TotalAmount is
// Σ(snapshot × quantity) and may legitimately differ from the checkout
// total if catalog prices changed after items were added.
type View struct {
	Lines       []Line          `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
