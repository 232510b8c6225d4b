// internal/entitlement/implementation.go
package entitlement

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"inkvault/internal/catalog"
	"inkvault/internal/domain"
	"inkvault/internal/ledger"
)

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	ledger *ledger.Ledger
}

// NewService creates a new entitlement service instance.
func NewService(db *sqlx.DB, lg *ledger.Ledger) Service {
	return &service{db: db, ledger: lg}
}

func (s *service) Grant(ctx context.Context, subject string, bookID uuid.UUID) (*Entitlement, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ent, err := s.GrantInTx(ctx, tx, subject, bookID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ent, nil
}

func (s *service) GrantInTx(ctx context.Context, tx *sqlx.Tx, subject string, bookID uuid.UUID) (*Entitlement, error) {
	ent := &Entitlement{ID: uuid.New(), Subject: subject, BookID: bookID}

	// ON CONFLICT keeps a duplicate grant from aborting the surrounding
	// transaction: checkout settlements skip lines the subject already owns.
	err := tx.GetContext(ctx, &ent.CreatedAt, `
		INSERT INTO entitlements (id, subject, book_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject, book_id) DO NOTHING
		RETURNING created_at
	`, ent.ID, subject, bookID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAlreadyOwned
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// A concurrent writer can still race the conflict target.
			return nil, domain.ErrAlreadyOwned
		}
		return nil, fmt.Errorf("insert entitlement: %w", err)
	}

	event := GrantedEvent{EntitlementID: ent.ID, Subject: subject, BookID: bookID}
	if err := s.ledger.Append(ctx, tx, ent.ID, ledger.AggregateEntitlement, ledger.EventEntitlementGranted, event); err != nil {
		return nil, fmt.Errorf("record grant: %w", err)
	}

	log.Info().Str("book_id", bookID.String()).Msg("entitlement granted")
	return ent, nil
}

// Authorize verifies that subject owns bookID and resolves the stored file
// reference. An unknown book is not found; a known book without an
// entitlement row is denied.
func (s *service) Authorize(ctx context.Context, subject string, bookID uuid.UUID) (*Authorization, error) {
	var fileRef string
	err := s.db.GetContext(ctx, &fileRef, `SELECT file_name FROM books WHERE id = $1`, bookID)
	if err == sql.ErrNoRows {
		return nil, domain.Errorf(domain.ENOTFOUND, "Book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}

	owns, err := s.Owns(ctx, subject, bookID)
	if err != nil {
		return nil, err
	}
	if !owns {
		log.Warn().Str("book_id", bookID.String()).Msg("access denied: no entitlement")
		return nil, domain.ErrAccessDenied
	}

	return &Authorization{Subject: subject, BookID: bookID, FileRef: fileRef}, nil
}

// ResolveSecurePath strips any directory components from the stored
// reference before joining it to baseDir, so a reference like
// "../../etc/passwd" degrades to "passwd" under baseDir. A missing file is
// a server-side condition, distinct from denial.
func (s *service) ResolveSecurePath(auth *Authorization, baseDir string) (string, error) {
	name := filepath.Base(auth.FileRef)
	if name == "." || name == string(filepath.Separator) {
		return "", domain.ErrFileMissing
	}

	fullPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(fullPath); err != nil {
		log.Error().Str("path", fullPath).Msg("book file missing")
		return "", domain.ErrFileMissing
	}
	return fullPath, nil
}

func (s *service) Owns(ctx context.Context, subject string, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM entitlements WHERE subject = $1 AND book_id = $2
		)
	`, subject, bookID)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	return exists, nil
}

// ListOwned returns the books the subject is entitled to read.
func (s *service) ListOwned(ctx context.Context, subject string) ([]*catalog.Book, error) {
	books := []*catalog.Book{}
	err := s.db.SelectContext(ctx, &books, `
		SELECT b.id, b.title, b.author, b.description, b.category, b.price,
		       b.available, b.rating, b.file_name, b.created_at, b.updated_at
		FROM books b
		JOIN entitlements e ON e.book_id = b.id
		WHERE e.subject = $1
		ORDER BY e.created_at DESC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("list owned books: %w", err)
	}
	return books, nil
}
