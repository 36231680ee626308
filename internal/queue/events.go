// Package queue contains the domain event payloads and the AMQP plumbing
// used to publish and consume them. Delivery is at-least-once; every
// consumer-side handler must be idempotent.
package queue

import "time"

const (
	TopicReservationCreated = "reservation.created"
	TopicPaymentApproved    = "payment.approved"
	TopicPaymentExpired     = "payment.expired"
	TopicSeatReleased       = "seat.released"
)

// ReservationCreatedEvent is published when a seat hold is successfully
// placed.
type ReservationCreatedEvent struct {
	ID             string    `json:"id" validate:"required,uuid4"`
	ShowingID      int       `json:"showingId" validate:"required,gt=0"`
	UserID         int       `json:"userId" validate:"required,gt=0"`
	SeatInstanceID int       `json:"seatInstanceId" validate:"required,gt=0"`
	CreatedAt      time.Time `json:"createdAt" validate:"required"`
	ExpiresAt      time.Time `json:"expiresAt" validate:"required"`
}

// PaymentApprovedEvent is emitted by the payment service when a payment for a
// hold goes through.
type PaymentApprovedEvent struct {
	ID            string     `json:"id" validate:"required"`
	UserID        int        `json:"userId" validate:"required,gt=0"`
	AmountInCents int64      `json:"amountInCents" validate:"required,gt=0"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	ApprovedAt    time.Time  `json:"approvedAt" validate:"required"`
	ExternalID    *string    `json:"externalId"`
	CustomerEmail *string    `json:"customerEmail,omitempty" validate:"omitempty,email"`
}

// PaymentExpiredEvent is emitted by the payment service when a payment window
// closes without approval.
type PaymentExpiredEvent struct {
	ID            string     `json:"id" validate:"required"`
	UserID        int        `json:"userId" validate:"required,gt=0"`
	AmountInCents int64      `json:"amountInCents" validate:"required,gt=0"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	ExternalID    *string    `json:"externalId"`
	ExpiredAt     time.Time  `json:"expiredAt" validate:"required"`
}

// SeatReleasedEvent is published when a seat goes back to the available pool;
// its ID is the reservation that held the seat.
type SeatReleasedEvent struct {
	ID         string    `json:"id" validate:"required"`
	ReleasedAt time.Time `json:"releasedAt" validate:"required"`
}
