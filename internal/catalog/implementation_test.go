// internal/catalog/implementation_test.go
package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkvault/internal/catalog"
	"inkvault/internal/domain"
	"inkvault/internal/platform/database/dbtest"
)

func seedBook(t *testing.T, db *sqlx.DB, title, author, category, price string, available bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO books (id, title, author, description, category, price, available, file_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, title, author, title+" description", category, price, available, id.String()+".pdf")
	require.NoError(t, err)
	return id
}

func TestGetBook(t *testing.T) {
	db := dbtest.Setup(t)
	svc := catalog.NewService(db)
	ctx := context.Background()

	id := seedBook(t, db, "The Great Gatsby", "F. Scott Fitzgerald", "classics", "9.99", true)

	book, err := svc.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", book.Title)
	assert.True(t, book.Price.Equal(decimal.RequireFromString("9.99")))

	_, err = svc.GetBook(ctx, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestSearchFiltersAndClamps(t *testing.T) {
	db := dbtest.Setup(t)
	svc := catalog.NewService(db)
	ctx := context.Background()

	seedBook(t, db, "Dune", "Frank Herbert", "sci-fi", "12.50", true)
	seedBook(t, db, "Dune Messiah", "Frank Herbert", "sci-fi", "8.00", true)
	seedBook(t, db, "Dune Atlas", "Someone Else", "reference", "30.00", false)

	// Unavailable books are never returned.
	books, total, err := svc.Search(ctx, catalog.SearchParams{Query: "dune"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 2)

	// Price range narrows the match.
	min := decimal.RequireFromString("10.00")
	books, total, err = svc.Search(ctx, catalog.SearchParams{Query: "dune", MinPrice: &min})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	// Category is an equality constraint.
	_, total, err = svc.Search(ctx, catalog.SearchParams{Query: "dune", Category: "reference"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// Out-of-range limit silently becomes the default, not an error.
	books, _, err = svc.Search(ctx, catalog.SearchParams{Query: "dune", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	// price_asc ordering.
	books, _, err = svc.Search(ctx, catalog.SearchParams{Query: "dune", SortBy: catalog.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune Messiah", books[0].Title)
}

func TestSearchRejectsBadQuery(t *testing.T) {
	db := dbtest.Setup(t)
	svc := catalog.NewService(db)

	_, _, err := svc.Search(context.Background(), catalog.SearchParams{Query: "'; DROP TABLE books; --"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
