package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// ChargeRequest is what the payment gateway needs to process one charge.
type ChargeRequest struct {
	OrderNumber string
	AmountCents int64
	Method      Method
}

// ChargeResult is the gateway's verdict. A refused charge is a result, not
// an error; errors are reserved for the gateway itself being unreachable.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Reason        string
}

// Gateway processes payment charges.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// OutcomeSource decides whether a simulated charge is approved.
type OutcomeSource interface {
	Outcome() (approved bool, reason string)
}

// RandomOutcome approves roughly 95% of charges.
type RandomOutcome struct{}

func (RandomOutcome) Outcome() (bool, string) {
	roll := rand.Intn(100)
	if roll < 95 {
		return true, ""
	}
	switch roll % 3 {
	case 0:
		return false, "insufficient funds"
	case 1:
		return false, "card declined by issuer"
	default:
		return false, "acquirer timeout"
	}
}

// SimulatedGateway stands in for a real payment processor: it waits the
// configured processing delay and asks its outcome source for the verdict.
type SimulatedGateway struct {
	delay   time.Duration
	outcome OutcomeSource
}

func NewSimulatedGateway(delay time.Duration, outcome OutcomeSource) *SimulatedGateway {
	if outcome == nil {
		outcome = RandomOutcome{}
	}
	return &SimulatedGateway{delay: delay, outcome: outcome}
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ ChargeRequest) (*ChargeResult, error) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	approved, reason := g.outcome.Outcome()
	return &ChargeResult{
		Approved:      approved,
		TransactionID: fmt.Sprintf("TXN-%s", uuid.NewString()),
		Reason:        reason,
	}, nil
}

// BreakerGateway wraps another gateway in a circuit breaker so a dead
// processor fails fast instead of stacking up blocked checkouts.
type BreakerGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker[*ChargeResult]
}

func NewBreakerGateway(inner Gateway) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
	}
	return &BreakerGateway{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*ChargeResult](settings),
	}
}

func (b *BreakerGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return b.breaker.Execute(func() (*ChargeResult, error) {
		return b.inner.Charge(ctx, req)
	})
}
