// internal/cart/implementation_test.go
package cart_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkvault/internal/cart"
	"inkvault/internal/catalog"
	"inkvault/internal/domain"
	"inkvault/internal/platform/database/dbtest"
)

func seedBook(t *testing.T, db *sqlx.DB, title, price string, available bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO books (id, title, author, description, category, price, available, file_name)
		VALUES ($1, $2, 'Author', '', 'fiction', $3, $4, $5)
	`, id, title, price, available, id.String()+".pdf")
	require.NoError(t, err)
	return id
}

func newService(db *sqlx.DB) cart.Service {
	return cart.NewService(db, catalog.NewService(db))
}

func TestGetOrCreateCartIdempotent(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	first, err := svc.GetOrCreateCart(ctx, "auth0|alice")
	require.NoError(t, err)
	second, err := svc.GetOrCreateCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := svc.GetOrCreateCart(ctx, "auth0|bob")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestAddItemIncrementsAndCaps(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	bookID := seedBook(t, db, "Dune", "12.50", true)

	line, err := svc.AddItem(ctx, "auth0|alice", bookID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, line.Quantity)
	assert.True(t, line.PriceSnapshot.Equal(decimal.RequireFromString("12.50")))

	// 8 + 5 exceeds the cap; quantity stays at 8.
	_, err = svc.AddItem(ctx, "auth0|alice", bookID, 5)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	view, err := svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 8, view.Lines[0].Quantity)

	// A permitted increment folds into the existing line.
	line, err = svc.AddItem(ctx, "auth0|alice", bookID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, line.Quantity)

	view, err = svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
}

func TestAddItemRejections(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "auth0|alice", uuid.New(), 1)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	unavailable := seedBook(t, db, "Out of Print", "5.00", false)
	_, err = svc.AddItem(ctx, "auth0|alice", unavailable, 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	available := seedBook(t, db, "In Print", "5.00", true)
	_, err = svc.AddItem(ctx, "auth0|alice", available, 0)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	_, err = svc.AddItem(ctx, "auth0|alice", available, 11)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func TestCartViewTotals(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	dune := seedBook(t, db, "Dune", "12.50", true)
	gatsby := seedBook(t, db, "The Great Gatsby", "9.99", true)

	_, err := svc.AddItem(ctx, "auth0|alice", dune, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "auth0|alice", gatsby, 1)
	require.NoError(t, err)

	view, err := svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("34.99")),
		"got %s", view.TotalAmount)

	// Display total keeps the snapshot even after a catalog price change.
	_, err = db.Exec(`UPDATE books SET price = '20.00' WHERE id = $1`, dune)
	require.NoError(t, err)
	view, err = svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("34.99")))
}

func TestLineOwnershipIsStructural(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	bookID := seedBook(t, db, "Dune", "12.50", true)
	line, err := svc.AddItem(ctx, "auth0|alice", bookID, 1)
	require.NoError(t, err)

	// Another subject's line reads as not found, never forbidden.
	err = svc.UpdateQuantity(ctx, "auth0|mallory", line.ID, 2)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	err = svc.RemoveItem(ctx, "auth0|mallory", line.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	err = svc.UpdateQuantity(ctx, "auth0|alice", line.ID, 3)
	require.NoError(t, err)
	view, err := svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Lines[0].Quantity)
}

func TestClearCartIdempotent(t *testing.T) {
	db := dbtest.Setup(t)
	svc := newService(db)
	ctx := context.Background()

	require.NoError(t, svc.ClearCart(ctx, "auth0|nobody"))

	bookID := seedBook(t, db, "Dune", "12.50", true)
	_, err := svc.AddItem(ctx, "auth0|alice", bookID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "auth0|alice"))
	view, err := svc.GetCart(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	require.NoError(t, svc.ClearCart(ctx, "auth0|alice"))
}
