// internal/checkout/implementation.go
package checkout

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"inkvault/internal/cart"
	"inkvault/internal/catalog"
	"inkvault/internal/domain"
	"inkvault/internal/entitlement"
	"inkvault/internal/ledger"
)

// service implements the Service interface.
type service struct {
	db           *sqlx.DB
	catalog      catalog.Service
	cart         cart.Service
	entitlements entitlement.Service
	ledger       *ledger.Ledger
	payments     PaymentProcessor
	tracer       trace.Tracer
}

// NewService creates a new checkout service instance.
func NewService(db *sqlx.DB, catalogSvc catalog.Service, cartSvc cart.Service, entSvc entitlement.Service, lg *ledger.Ledger, payments PaymentProcessor) Service {
	return &service{
		db:           db,
		catalog:      catalogSvc,
		cart:         cartSvc,
		entitlements: entSvc,
		ledger:       lg,
		payments:     payments,
		tracer:       otel.Tracer("inkvault/checkout"),
	}
}

// CreateOrder orchestrates the checkout: recompute prices from the catalog,
// persist the order and its line snapshots, attempt payment once, settle,
// and grant entitlements on success.
func (s *service) CreateOrder(ctx context.Context, subject string, input Input) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.create_order")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	view, err := s.cart.GetCart(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Re-read every book now. Totals come from the current catalog price,
	// never from the cart snapshot, so a tampered or stale cart cannot set
	// the billed amount.
	lines := make([]OrderLine, 0, len(view.Lines))
	total := decimal.Zero
	for _, cl := range view.Lines {
		book, err := s.catalog.GetBook(ctx, cl.BookID)
		if err != nil {
			return nil, err
		}
		if !book.Available {
			return nil, domain.ErrUnavailable
		}
		subtotal := book.Price.Mul(decimal.NewFromInt(int64(cl.Quantity)))
		total = total.Add(subtotal)
		lines = append(lines, OrderLine{
			ID:        uuid.New(),
			BookID:    book.ID,
			Title:     book.Title,
			Author:    book.Author,
			Quantity:  cl.Quantity,
			UnitPrice: book.Price,
			Subtotal:  subtotal,
		})
	}

	order := &Order{
		ID:              uuid.New(),
		OrderNumber:     generateOrderNumber(),
		Subject:         subject,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentStatus:   StatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
	}
	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.lines", len(lines)),
	)

	if err := s.persistOrder(ctx, order, lines); err != nil {
		return nil, err
	}
	log.Info().Str("order_number", order.OrderNumber).Str("total", total.StringFixed(2)).Msg("order created")

	outcome, err := s.payments.Process(ctx, order.ID, total, input.PaymentMethod, PaymentDetails{CardNumber: input.CardNumber})
	if err != nil {
		// A collaborator failure is a defined transition, not a stuck order.
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("payment collaborator failed")
		outcome = &PaymentOutcome{Status: StatusFailed, Message: "Payment could not be processed"}
	}
	span.SetAttributes(attribute.String("payment.status", outcome.Status))

	if err := s.settleOrder(ctx, order, lines, outcome.Status); err != nil {
		return nil, err
	}

	if outcome.Status == StatusCompleted {
		// Failed payments keep the cart so the subject can retry.
		if err := s.cart.ClearCart(ctx, subject); err != nil {
			log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to clear cart after settlement")
		}
	}

	status := StatusCompleted
	if outcome.Status != StatusCompleted {
		status = StatusFailed
	}
	return &Result{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   total,
		Status:        status,
		PaymentStatus: outcome.Status,
	}, nil
}

// persistOrder writes the order, its line snapshots, and the creation ledger
// event in one transaction.
func (s *service) persistOrder(ctx context.Context, order *Order, lines []OrderLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, &order.CreatedAt, `
		INSERT INTO orders (id, order_number, subject, total_amount, status, payment_status, payment_method, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, order.ID, order.OrderNumber, order.Subject, order.TotalAmount, order.Status, order.PaymentStatus, order.PaymentMethod, order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, book_id, title, author, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, lines[i].ID, order.ID, lines[i].BookID, lines[i].Title, lines[i].Author, lines[i].Quantity, lines[i].UnitPrice, lines[i].Subtotal)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	event := OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Subject:     order.Subject,
		TotalAmount: order.TotalAmount,
		LineCount:   len(lines),
	}
	if err := s.ledger.Append(ctx, tx, order.ID, ledger.AggregateOrder, ledger.EventOrderCreated, event); err != nil {
		return fmt.Errorf("record order creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// settleOrder records the payment outcome and, on completion, grants one
// entitlement per purchased book. A grant that already exists is an
// idempotent skip; the entitlements uniqueness constraint is the sole
// guarantee under concurrent settlements.
func (s *service) settleOrder(ctx context.Context, order *Order, lines []OrderLine, paymentStatus string) error {
	ctx, span := s.tracer.Start(ctx, "checkout.settle_order",
		trace.WithAttributes(attribute.String("payment.status", paymentStatus)),
	)
	defer span.End()

	status := StatusFailed
	if paymentStatus == StatusCompleted {
		status = StatusCompleted
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2
		WHERE id = $3
	`, status, paymentStatus, order.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	event := OrderSettledEvent{OrderID: order.ID, PaymentStatus: paymentStatus}
	if err := s.ledger.Append(ctx, tx, order.ID, ledger.AggregateOrder, ledger.EventOrderSettled, event); err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}

	if status == StatusCompleted {
		for _, line := range lines {
			_, err := s.entitlements.GrantInTx(ctx, tx, order.Subject, line.BookID)
			if errors.Is(err, domain.ErrAlreadyOwned) {
				log.Info().Str("book_id", line.BookID.String()).Msg("entitlement already exists, skipping")
				continue
			}
			if err != nil {
				return fmt.Errorf("grant entitlement: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by number for its owner.
func (s *service) GetOrder(ctx context.Context, orderNumber, subject string) (*Detail, error) {
	if len(orderNumber) < 5 || len(orderNumber) > 50 {
		return nil, domain.Errorf(domain.EINVALID, "Invalid order number")
	}

	detail := &Detail{}
	err := s.db.GetContext(ctx, &detail.Order, `
		SELECT id, order_number, subject, total_amount, status, payment_status, payment_method, shipping_address, created_at
		FROM orders
		WHERE order_number = $1 AND subject = $2
	`, orderNumber, subject)
	if err == sql.ErrNoRows {
		return nil, domain.Errorf(domain.ENOTFOUND, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	detail.Lines = []OrderLine{}
	err = s.db.SelectContext(ctx, &detail.Lines, `
		SELECT id, order_id, book_id, title, author, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = $1
	`, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	return detail, nil
}

// ListOrders returns the subject's order history, newest first.
func (s *service) ListOrders(ctx context.Context, subject string, limit int) ([]*Order, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	orders := []*Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, order_number, subject, total_amount, status, payment_status, payment_method, shipping_address, created_at
		FROM orders
		WHERE subject = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// generateOrderNumber renders 48 bits of UUID entropy as an opaque token.
func generateOrderNumber() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(hex.EncodeToString(id[:6]))
}
