package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Showing is a scheduled screening. Catalog management owns these rows; the
// booking core only reads them.
type Showing struct {
	ID        int
	MovieID   int
	HallID    int
	Price     decimal.Decimal
	StartTime time.Time
}

// SeatInstance is a physical seat bound to one showing. Available is true
// only when the seat has no active reservation and has not been sold.
type SeatInstance struct {
	ID                  int
	SeatID              int
	ShowingID           int
	Available           bool
	ActiveReservationID *string
	SoldAt              *time.Time
	CreatedAt           time.Time
}

func (s *SeatInstance) Sold() bool {
	return s.SoldAt != nil
}

type ShowingRepository interface {
	GetById(ctx context.Context, id int) (*Showing, error)
	GetSeatInstance(ctx context.Context, showingID, seatInstanceID int) (*SeatInstance, error)
	GetSeatInstancesByShowing(ctx context.Context, showingID int) ([]SeatInstance, error)
}
