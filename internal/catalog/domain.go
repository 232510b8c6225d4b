// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book is a purchasable digital good. Records are read-only for this
// service; administrative tooling owns mutation.
type Book struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Author      string          `json:"author" db:"author"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Available   bool            `json:"available" db:"available"`
	Rating      *float64        `json:"rating,omitempty" db:"rating"`
	FileName    string          `json:"-" db:"file_name"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Sort keys accepted by Search. Anything else falls back to SortRelevance.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// SearchParams carries the filters for a catalog search. Query must already
// have passed SanitizeQuery.
type SearchParams struct {
	Query    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
	SortBy   string
}
