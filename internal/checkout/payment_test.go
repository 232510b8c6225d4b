// internal/checkout/payment_test.go
package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkvault/internal/domain"
)

func TestDummyProcessorDeclineSuffix(t *testing.T) {
	ctx := context.Background()
	amount := decimal.RequireFromString("19.99")

	outcome, err := DummyProcessor{}.Process(ctx, uuid.New(), amount, "dummy", PaymentDetails{CardNumber: "4111111111110000"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)

	outcome, err = DummyProcessor{}.Process(ctx, uuid.New(), amount, "dummy", PaymentDetails{CardNumber: "4111111111111111"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, outcome.Status)

	// No card number at all (e.g. paypal) completes.
	outcome, err = DummyProcessor{}.Process(ctx, uuid.New(), amount, "paypal", PaymentDetails{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, outcome.Status)
}

type hangingProcessor struct{}

func (hangingProcessor) Process(ctx context.Context, _ uuid.UUID, _ decimal.Decimal, _ string, _ PaymentDetails) (*PaymentOutcome, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGuardedProcessorTimesOut(t *testing.T) {
	guarded := NewGuardedProcessor(hangingProcessor{}, 20*time.Millisecond)

	start := time.Now()
	_, err := guarded.Process(context.Background(), uuid.New(), decimal.New(10, 0), "dummy", PaymentDetails{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "timeout must bound the call")
}

type failingProcessor struct{}

func (failingProcessor) Process(context.Context, uuid.UUID, decimal.Decimal, string, PaymentDetails) (*PaymentOutcome, error) {
	return nil, errors.New("gateway unreachable")
}

func TestGuardedProcessorBreakerOpens(t *testing.T) {
	guarded := NewGuardedProcessor(failingProcessor{}, time.Second)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := guarded.Process(ctx, uuid.New(), decimal.New(10, 0), "dummy", PaymentDetails{})
		require.Error(t, err)
	}

	// After five consecutive failures the breaker rejects without calling
	// the collaborator.
	_, err := guarded.Process(ctx, uuid.New(), decimal.New(10, 0), "dummy", PaymentDetails{})
	require.Error(t, err)
}

func TestInputValidate(t *testing.T) {
	valid := Input{PaymentMethod: "credit_card", ShippingAddress: "221B Baker Street, London", CardNumber: "4111111111111111"}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		input Input
	}{
		{"unknown method", Input{PaymentMethod: "bitcoin", ShippingAddress: "221B Baker Street, London"}},
		{"short address", Input{PaymentMethod: "dummy", ShippingAddress: "short"}},
		{"bad card", Input{PaymentMethod: "credit_card", ShippingAddress: "221B Baker Street, London", CardNumber: "41"}},
		{"non-numeric card", Input{PaymentMethod: "credit_card", ShippingAddress: "221B Baker Street, London", CardNumber: "4111-1111-1111-11"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}

	// Card number is optional.
	assert.NoError(t, Input{PaymentMethod: "paypal", ShippingAddress: "221B Baker Street, London"}.Validate())
}

func TestGenerateOrderNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		n := generateOrderNumber()
		assert.Regexp(t, `^ORD-[0-9A-F]{12}$`, n)
		assert.False(t, seen[n], "order numbers must not repeat")
		seen[n] = true
	}
}
