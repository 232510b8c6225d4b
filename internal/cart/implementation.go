// internal/cart/implementation.go
package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"inkvault/internal/catalog"
	"inkvault/internal/domain"
)

// service implements the Service interface.
type service struct {
	db      *sqlx.DB
	catalog catalog.Service
}

// NewService creates a new cart service instance.
func NewService(db *sqlx.DB, catalogSvc catalog.Service) Service {
	return &service{db: db, catalog: catalogSvc}
}

// GetOrCreateCart returns the subject's cart id, creating the cart on first
// access. Idempotent under concurrent calls: the subject uniqueness
// constraint collapses races onto one row.
func (s *service) GetOrCreateCart(ctx context.Context, subject string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO carts (id, subject)
		VALUES ($1, $2)
		ON CONFLICT (subject) DO UPDATE SET subject = EXCLUDED.subject
		RETURNING id
	`, uuid.New(), subject).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get or create cart: %w", err)
	}
	return id, nil
}

// AddItem puts quantity copies of a book into the subject's cart. An
// existing line for the same book is incremented in place; the combined
// quantity may not exceed MaxQuantityPerItem, and a rejected add leaves the
// existing quantity untouched.
func (s *service) AddItem(ctx context.Context, subject string, bookID uuid.UUID, quantity int) (*Line, error) {
	if quantity < 1 {
		return nil, domain.Errorf(domain.EINVALID, "Quantity must be at least 1")
	}
	if quantity > MaxQuantityPerItem {
		return nil, domain.ErrLimitExceeded
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Available {
		return nil, domain.ErrUnavailable
	}

	cartID, err := s.GetOrCreateCart(ctx, subject)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing struct {
		ID       uuid.UUID `db:"id"`
		Quantity int       `db:"quantity"`
	}
	err = tx.GetContext(ctx, &existing, `
		SELECT id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND book_id = $2
		FOR UPDATE
	`, cartID, bookID)

	line := &Line{CartID: cartID, BookID: bookID, Title: book.Title, Author: book.Author}

	switch {
	case err == sql.ErrNoRows:
		line.ID = uuid.New()
		line.Quantity = quantity
		line.PriceSnapshot = book.Price
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, book_id, quantity, price_snapshot)
			VALUES ($1, $2, $3, $4, $5)
		`, line.ID, cartID, bookID, quantity, book.Price)
		if err != nil {
			return nil, fmt.Errorf("insert cart line: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load cart line: %w", err)
	default:
		if existing.Quantity+quantity > MaxQuantityPerItem {
			return nil, domain.ErrLimitExceeded
		}
		line.ID = existing.ID
		line.Quantity = existing.Quantity + quantity
		err = tx.GetContext(ctx, &line.PriceSnapshot, `
			UPDATE cart_items
			SET quantity = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING price_snapshot
		`, line.Quantity, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("update cart line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	line.Subtotal = line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity)))
	log.Info().Str("book_id", bookID.String()).Int("quantity", quantity).Msg("cart item added")
	return line, nil
}

// GetCart returns the subject's cart snapshot. A subject without a cart gets
// an empty view, not an error.
func (s *service) GetCart(ctx context.Context, subject string) (*View, error) {
	view := &View{Lines: []Line{}, TotalAmount: decimal.Zero}

	var cartID uuid.UUID
	err := s.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE subject = $1`, subject)
	if err == sql.ErrNoRows {
		return view, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	err = s.db.SelectContext(ctx, &view.Lines, `
		SELECT ci.id, ci.cart_id, ci.book_id, b.title, b.author, ci.quantity, ci.price_snapshot
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}

	for i := range view.Lines {
		line := &view.Lines[i]
		line.Subtotal = line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.TotalAmount = view.TotalAmount.Add(line.Subtotal)
		view.TotalItems += line.Quantity
	}
	return view, nil
}

// UpdateQuantity sets a line's quantity. Ownership is resolved through the
// cart join, so another subject's line is indistinguishable from a missing
// one.
func (s *service) UpdateQuantity(ctx context.Context, subject string, lineID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return domain.Errorf(domain.EINVALID, "Quantity must be at least 1")
	}
	if quantity > MaxQuantityPerItem {
		return domain.ErrLimitExceeded
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $1, updated_at = NOW()
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.subject = $3
	`, quantity, lineID, subject)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Errorf(domain.ENOTFOUND, "Cart item not found")
	}
	return nil
}

// RemoveItem deletes a line from the subject's cart.
func (s *service) RemoveItem(ctx context.Context, subject string, lineID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.subject = $2
	`, lineID, subject)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Errorf(domain.ENOTFOUND, "Cart item not found")
	}
	return nil
}

// ClearCart deletes all lines for the subject's cart. No-op when the cart
// is absent.
func (s *service) ClearCart(ctx context.Context, subject string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.subject = $1
	`, subject)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	log.Info().Msg("cart cleared")
	return nil
}
