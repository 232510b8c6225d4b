// internal/checkout/domain.go
package checkout

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inkvault/internal/domain"
)

// Order and payment states. There is no partial outcome: payment settles as
// completed or failed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Order is an immutable record of a checkout attempt; only status and
// payment_status transition after creation.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	Subject         string          `json:"-" db:"subject"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          string          `json:"status" db:"status"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// OrderLine is a frozen copy of the purchased item at checkout time,
// independent of later catalog changes.
type OrderLine struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	BookID    uuid.UUID       `json:"book_id" db:"book_id"`
	Title     string          `json:"title" db:"title"`
	Author    string          `json:"author" db:"author"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Result is returned from CreateOrder. An order is persisted and returned
// even when payment fails.
type Result struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
}

// Detail is the full order view returned to its owner.
type Detail struct {
	Order
	Lines []OrderLine `json:"items"`
}

// Input carries the checkout request.
type Input struct {
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address"`
	CardNumber      string `json:"card_number,omitempty"`
}

var (
	validMethods    = map[string]bool{"credit_card": true, "paypal": true, "dummy": true}
	validCardNumber = regexp.MustCompile(`^[0-9]{16}$`)
)

// Validate enforces the request policy before any work happens.
func (in Input) Validate() error {
	if !validMethods[in.PaymentMethod] {
		return domain.Errorf(domain.EINVALID, "Invalid payment method")
	}
	if len(in.ShippingAddress) < 10 || len(in.ShippingAddress) > 500 {
		return domain.Errorf(domain.EINVALID, "Shipping address must be between 10 and 500 characters")
	}
	if in.CardNumber != "" && !validCardNumber.MatchString(in.CardNumber) {
		return domain.Errorf(domain.EINVALID, "Card number must be 16 digits")
	}
	return nil
}

// Ledger payloads.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Subject     string          `json:"subject"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
}

type OrderSettledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
}
