package mocks

import (
	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockCheckoutProvider struct {
	mock.Mock
}

func (m *MockCheckoutProvider) CreateCheckoutSession(paymentID string, reservation domain.Reservation, showing domain.Showing) (*stripe.CheckoutSession, error) {
	args := m.Called(paymentID, reservation, showing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}
