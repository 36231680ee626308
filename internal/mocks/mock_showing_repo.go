package mocks

import (
	"context"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowingRepo struct {
	mock.Mock
	domain.ShowingRepository
}

func (m *MockShowingRepo) GetById(ctx context.Context, id int) (*domain.Showing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showing), args.Error(1)
}

func (m *MockShowingRepo) GetSeatInstance(ctx context.Context, showingID, seatInstanceID int) (*domain.SeatInstance, error) {
	args := m.Called(ctx, showingID, seatInstanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatInstance), args.Error(1)
}

func (m *MockShowingRepo) GetSeatInstancesByShowing(ctx context.Context, showingID int) ([]domain.SeatInstance, error) {
	args := m.Called(ctx, showingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatInstance), args.Error(1)
}
