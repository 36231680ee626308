package domain

import (
	"context"
	"time"
)

// Reservation is a time-bounded hold on a seat instance. Rows are kept as
// history after confirmation or release; a reservation is "active" only while
// neither has happened and the expiry has not passed.
type Reservation struct {
	ID             string
	SeatInstanceID int
	ShowingID      int
	UserID         int
	CreatedAt      time.Time
	ExpiresAt      time.Time
	ConfirmedAt    *time.Time
	ReleasedAt     *time.Time
}

func (r *Reservation) Active(now time.Time) bool {
	return r.ConfirmedAt == nil && r.ReleasedAt == nil && now.Before(r.ExpiresAt)
}

func (r *Reservation) Expired(now time.Time) bool {
	return r.ConfirmedAt == nil && r.ReleasedAt == nil && !now.Before(r.ExpiresAt)
}

type ReserveParams struct {
	ReservationID  string
	SeatInstanceID int
	ShowingID      int
	UserID         int
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// SeatLedger is the only gateway through which seat availability changes. All
// three mutations are atomic conditional writes keyed on the seat instance's
// availability flag and the reservation's confirmed/released markers.
type SeatLedger interface {
	// TryReserve inserts the reservation and flips the seat's availability
	// flag in one transaction. It fails with ErrSeatNotAvailable when the
	// flag is already false, and with ErrRecordNotFound when the seat
	// instance does not exist. No side effects remain on failure.
	TryReserve(ctx context.Context, params ReserveParams) (*Reservation, error)

	// Confirm sets the confirmation timestamp once and marks the seat
	// permanently sold. Returns ErrAlreadyConfirmed on a duplicate confirm
	// and ErrRecordNotFound when the reservation is unknown, released, or
	// past its expiry.
	Confirm(ctx context.Context, reservationID string, confirmedAt time.Time) (*Reservation, error)

	// Release returns the seat to the available pool unless the reservation
	// was confirmed. The boolean reports whether this call performed the
	// release; a duplicate release is a no-op returning false with no error.
	// Returns ErrAlreadyConfirmed when confirmation won the race.
	Release(ctx context.Context, reservationID string, releasedAt time.Time) (*Reservation, bool, error)

	// FindExpired lists reservations whose hold elapsed without confirmation
	// or release, oldest first.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Reservation, error)

	GetByID(ctx context.Context, reservationID string) (*Reservation, error)
}
