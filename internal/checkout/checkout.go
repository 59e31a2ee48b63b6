// Package checkout turns a non-empty cart into a confirmed order through a
// simulated payment flow.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/cart"
)

// Method is the selected payment instrument.
type Method string

const (
	MethodPix    Method = "pix"
	MethodCredit Method = "credit"
	MethodDebit  Method = "debit"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrUnknownMethod = errors.New("unknown payment method")
)

// RefusalError reports a charge the gateway processed but declined.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("payment refused: %s", e.Reason)
}

// Request is one payment submission from the checkout page.
type Request struct {
	Method Method `json:"method"`
	Card   *Card  `json:"card,omitempty"`
}

// Confirmation is returned for an approved payment.
type Confirmation struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Method        Method `json:"method"`
	TotalCents    int64  `json:"total"`
	Installments  int    `json:"installments,omitempty"`
}

// Service drives the payment flow against the cart store. Concurrent
// submissions for the same cart state collapse into a single charge, the
// server-side equivalent of disabling the pay button while a payment is in
// flight.
type Service struct {
	store   *cart.Store
	gateway Gateway
	group   singleflight.Group
	now     func() time.Time
}

func NewService(store *cart.Store, gateway Gateway) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		now:     time.Now,
	}
}

// Pay validates the request, charges the gateway and clears the cart on
// approval. The cleared cart notifies every subscribed renderer, so the
// catalog badge and the checkout summary reset without extra calls.
func (s *Service) Pay(ctx context.Context, req Request) (*Confirmation, error) {
	debit := false
	switch req.Method {
	case MethodPix:
	case MethodDebit:
		debit = true
		fallthrough
	case MethodCredit:
		if req.Card == nil {
			return nil, FieldErrors{"card": "dados do cartão ausentes"}
		}
		if errs := req.Card.Validate(s.now(), debit); errs != nil {
			return nil, errs
		}
	default:
		return nil, ErrUnknownMethod
	}

	snapshot := s.store.GetCart(ctx)
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}
	totals := cart.ComputeTotals(snapshot)

	// One in-flight charge per cart state; duplicates share its outcome.
	key := fmt.Sprintf("%d:%d:%s", snapshot.UpdatedAt, totals.Total, req.Method)
	result, err, shared := s.group.Do(key, func() (any, error) {
		return s.charge(ctx, req, totals.Total)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("checkout: duplicate submission collapsed for key %s", key)
	}
	return result.(*Confirmation), nil
}

func (s *Service) charge(ctx context.Context, req Request, totalCents int64) (*Confirmation, error) {
	orderNumber := OrderNumber()

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		OrderNumber: orderNumber,
		AmountCents: totalCents,
		Method:      req.Method,
	})
	if err != nil {
		return nil, fmt.Errorf("charge failed: %w", err)
	}
	if !result.Approved {
		return nil, &RefusalError{Reason: result.Reason}
	}

	s.store.Clear(ctx)

	confirmation := &Confirmation{
		OrderNumber:   orderNumber,
		TransactionID: result.TransactionID,
		Method:        req.Method,
		TotalCents:    totalCents,
	}
	if req.Method == MethodCredit && req.Card != nil && req.Card.Installments > 1 {
		confirmation.Installments = req.Card.Installments
	}
	return confirmation, nil
}

// Pix returns the copy-and-paste payload for the cart's current total.
func (s *Service) Pix(ctx context.Context) string {
	return PixCode(s.store.GetTotals(ctx).Total)
}
