// internal/ledger/ledger.go
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrVersionConflict = errors.New("version conflict: ledger position already written")
)

// Aggregate types recorded in the ledger.
const (
	AggregateOrder       = "order"
	AggregateEntitlement = "entitlement"
)

// Event types recorded in the ledger.
const (
	EventOrderCreated       = "order.created"
	EventOrderSettled       = "order.settled"
	EventEntitlementGranted = "entitlement.granted"
)

// Event is one immutable row in the commerce audit trail.
type Event struct {
	ID            int64           `json:"id" db:"id"`
	AggregateID   uuid.UUID       `json:"aggregate_id" db:"aggregate_id"`
	AggregateType string          `json:"aggregate_type" db:"aggregate_type"`
	EventType     string          `json:"event_type" db:"event_type"`
	EventData     json.RawMessage `json:"event_data" db:"event_data"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Ledger is an append-only record of commerce state changes. Appends run
// inside the caller's transaction so an audit row and the state change it
// describes commit or roll back together.
type Ledger struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

func New(db *sqlx.DB) *Ledger {
	return &Ledger{
		db:     db,
		tracer: otel.Tracer("inkvault/ledger"),
	}
}

// Append writes one event at the next version for the aggregate, inside tx.
// A concurrent writer racing for the same version surfaces as
// ErrVersionConflict rather than a raw driver error.
func (l *Ledger) Append(ctx context.Context, tx *sqlx.Tx, aggregateID uuid.UUID, aggregateType, eventType string, data interface{}) error {
	ctx, span := l.tracer.Start(ctx, "ledger.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.String("aggregate.type", aggregateType),
			attribute.String("event.type", eventType),
		),
	)
	defer span.End()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	var currentVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM commerce_events
		WHERE aggregate_id = $1
	`, aggregateID).Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("query current version: %w", err)
	}

	var eventID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO commerce_events (aggregate_id, aggregate_type, event_type, event_data, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, aggregateID, aggregateType, eventType, payload, currentVersion+1, time.Now().UTC()).Scan(&eventID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrVersionConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}

	span.AddEvent("event.appended", trace.WithAttributes(
		attribute.Int64("event.id", eventID),
		attribute.Int("event.version", currentVersion+1),
	))
	return nil
}

// Load retrieves all events for an aggregate in version order.
func (l *Ledger) Load(ctx context.Context, aggregateID uuid.UUID) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.load",
		trace.WithAttributes(attribute.String("aggregate.id", aggregateID.String())),
	)
	defer span.End()

	var events []Event
	err := l.db.SelectContext(ctx, &events, `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM commerce_events
		WHERE aggregate_id = $1
		ORDER BY version ASC
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// Stream provides a cursor-based read over the whole ledger for audit
// consumers and reconciliation jobs.
func (l *Ledger) Stream(ctx context.Context, fromID int64, batchSize int) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.stream",
		trace.WithAttributes(
			attribute.Int64("from.id", fromID),
			attribute.Int("batch.size", batchSize),
		),
	)
	defer span.End()

	var events []Event
	err := l.db.SelectContext(ctx, &events, `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM commerce_events
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, fromID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query event stream: %w", err)
	}

	span.SetAttributes(attribute.Int("events.streamed", len(events)))
	return events, nil
}
