// internal/checkout/payment.go
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// declineSuffix forces a deterministic decline from the dummy gateway, which
// tests rely on.
const declineSuffix = "0000"

// PaymentDetails carries collaborator-specific payment input. Card numbers
// are never logged.
type PaymentDetails struct {
	CardNumber string
}

// PaymentOutcome is the collaborator's verdict: completed or failed only.
type PaymentOutcome struct {
	Status  string
	Message string
}

// PaymentProcessor is the external payment collaborator.
type PaymentProcessor interface {
	Process(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string, details PaymentDetails) (*PaymentOutcome, error)
}

// DummyProcessor simulates a payment gateway: any card ending in the decline
// suffix fails, everything else completes.
type DummyProcessor struct{}

func (DummyProcessor) Process(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string, details PaymentDetails) (*PaymentOutcome, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}

	if strings.HasSuffix(details.CardNumber, declineSuffix) {
		log.Warn().Str("order_id", orderID.String()).Msg("dummy payment declined")
		return &PaymentOutcome{Status: StatusFailed, Message: "Card declined"}, nil
	}

	log.Info().
		Str("order_id", orderID.String()).
		Str("amount", amount.StringFixed(2)).
		Str("method", method).
		Msg("dummy payment processed")
	return &PaymentOutcome{Status: StatusCompleted, Message: "Payment successful"}, nil
}

// GuardedProcessor bounds the collaborator call with a timeout and a circuit
// breaker so a hung gateway cannot hold orders in pending indefinitely. Any
// breaker, timeout, or collaborator error settles the payment as failed.
type GuardedProcessor struct {
	inner   PaymentProcessor
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewGuardedProcessor(inner PaymentProcessor, timeout time.Duration) *GuardedProcessor {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "payment",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &GuardedProcessor{inner: inner, breaker: breaker, timeout: timeout}
}

func (g *GuardedProcessor) Process(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string, details PaymentDetails) (*PaymentOutcome, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.inner.Process(callCtx, orderID, amount, method, details)
	})
	if err != nil {
		return nil, fmt.Errorf("payment collaborator: %w", err)
	}
	return result.(*PaymentOutcome), nil
}
