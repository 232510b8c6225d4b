// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"inkvault/internal/domain"
)

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

const bookColumns = `id, title, author, description, category, price, available, rating, file_name, created_at, updated_at`

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book := &Book{}
	err := s.db.GetContext(ctx, book, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = $1
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.Errorf(domain.ENOTFOUND, "Book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns available books, newest first.
func (s *service) ListBooks(ctx context.Context, limit, offset int) ([]*Book, error) {
	limit = clampLimit(limit)
	offset = clampOffset(offset)

	books := []*Book{}
	err := s.db.SelectContext(ctx, &books, `
		SELECT `+bookColumns+`
		FROM books
		WHERE available = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Search executes a parameterized catalog search. The text match is a
// case-insensitive substring over title, author, and description; filters are
// ANDed on top; only available books are returned.
func (s *service) Search(ctx context.Context, params SearchParams) ([]*Book, int, error) {
	query, err := SanitizeQuery(params.Query)
	if err != nil {
		return nil, 0, err
	}

	limit := clampLimit(params.Limit)
	offset := clampOffset(params.Offset)
	sortBy := normalizeSort(params.SortBy)

	conds := []string{
		"available = TRUE",
		"(title ILIKE $1 OR author ILIKE $1 OR description ILIKE $1)",
	}
	args := []interface{}{"%" + query + "%"}

	if params.MinPrice != nil {
		args = append(args, *params.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if params.MaxPrice != nil {
		args = append(args, *params.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}
	if category := strings.TrimSpace(params.Category); category != "" {
		args = append(args, category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int
	err = s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM books WHERE `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	// The sort key was normalized against a fixed whitelist above; each case
	// maps to a constant clause.
	var orderBy string
	switch sortBy {
	case SortPriceAsc:
		orderBy = "price ASC"
	case SortPriceDesc:
		orderBy = "price DESC"
	default:
		// Rating stands in for relevance.
		orderBy = "rating DESC NULLS LAST"
	}

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	books := []*Book{}
	err = s.db.SelectContext(ctx, &books, fmt.Sprintf(`
		SELECT %s
		FROM books
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, bookColumns, where, orderBy, limitPos, offsetPos), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}

	return books, total, nil
}
