package payment

import (
	"fmt"
	"strconv"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type StripeCheckoutProvider struct {
	failureUrl string
	successUrl string
}

func NewStripeCheckoutProvider(failureUrl, successUrl string) *StripeCheckoutProvider {
	return &StripeCheckoutProvider{
		failureUrl: failureUrl,
		successUrl: successUrl,
	}
}

func (s *StripeCheckoutProvider) CreateCheckoutSession(
	paymentID string,
	reservation domain.Reservation,
	showing domain.Showing) (*stripe.CheckoutSession, error) {

	priceCents := showing.Price.Mul(decimal.NewFromInt(100)).IntPart()

	lineItem := &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(string(stripe.CurrencyUSD)),
			UnitAmount: stripe.Int64(priceCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(fmt.Sprintf("Seat reservation %s", reservation.ID)),
				Description: stripe.String(fmt.Sprintf(
					"Showing %d • Seat %d • Starts %s",
					showing.ID,
					reservation.SeatInstanceID,
					showing.StartTime.Format("Jan 2, 2006 15:04"),
				)),
			},
		},
		Quantity: stripe.Int64(1),
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  []*stripe.CheckoutSessionLineItemParams{lineItem},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			"payment_id":     paymentID,
			"reservation_id": reservation.ID,
			"user_id":        strconv.Itoa(reservation.UserID),
		},
		ClientReferenceID: stripe.String(reservation.ID),
	}

	return session.New(params)
}
