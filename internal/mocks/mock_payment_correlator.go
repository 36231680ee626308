package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockPaymentCorrelator struct {
	mock.Mock
}

func (m *MockPaymentCorrelator) Bind(ctx context.Context, paymentID, reservationID string, ttl time.Duration) error {
	args := m.Called(ctx, paymentID, reservationID, ttl)
	return args.Error(0)
}

func (m *MockPaymentCorrelator) ReservationIDForPayment(ctx context.Context, paymentID string) (string, error) {
	args := m.Called(ctx, paymentID)
	return args.String(0), args.Error(1)
}
