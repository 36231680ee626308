package mocks

import (
	"context"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatLedger struct {
	mock.Mock
	domain.SeatLedger
}

func (m *MockSeatLedger) TryReserve(ctx context.Context, params domain.ReserveParams) (*domain.Reservation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockSeatLedger) Confirm(ctx context.Context, reservationID string, confirmedAt time.Time) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, confirmedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockSeatLedger) Release(ctx context.Context, reservationID string, releasedAt time.Time) (*domain.Reservation, bool, error) {
	args := m.Called(ctx, reservationID, releasedAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockSeatLedger) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockSeatLedger) GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
