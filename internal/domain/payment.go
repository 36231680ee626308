package domain

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v82"
)

// PaymentCorrelator remembers which reservation a payment was created for, so
// that asynchronous payment outcomes can be routed back to it. Entries live
// only as long as the hold they belong to.
type PaymentCorrelator interface {
	Bind(ctx context.Context, paymentID, reservationID string, ttl time.Duration) error

	// ReservationIDForPayment returns ErrRecordNotFound when no binding
	// exists, which callers treat as a hold that already ran out.
	ReservationIDForPayment(ctx context.Context, paymentID string) (string, error)
}

type CheckoutProvider interface {
	CreateCheckoutSession(paymentID string, reservation Reservation, showing Showing) (*stripe.CheckoutSession, error)
}
