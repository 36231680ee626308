// Package coordinator reconciles asynchronous payment outcomes with seat
// reservations. Messages arrive at least once and in any order across topics;
// every handler resolves races through the seat ledger's conditional writes,
// with the rule that a confirmation that happened first always wins.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/cinegate/seat-booking-system/internal/mailer"
	"github.com/cinegate/seat-booking-system/internal/queue"
	"github.com/go-playground/validator/v10"
)

type Coordinator struct {
	logger    *slog.Logger
	ledger    domain.SeatLedger
	payments  domain.PaymentCorrelator
	publisher queue.Publisher
	mailer    mailer.Mailer
	clock     domain.Clock
	batchSize int
	wg        sync.WaitGroup
}

func New(
	logger *slog.Logger,
	ledger domain.SeatLedger,
	payments domain.PaymentCorrelator,
	publisher queue.Publisher,
	mailer mailer.Mailer,
	clock domain.Clock,
	batchSize int) *Coordinator {

	return &Coordinator{
		logger:    logger,
		ledger:    ledger,
		payments:  payments,
		publisher: publisher,
		mailer:    mailer,
		clock:     clock,
		batchSize: batchSize,
	}
}

// Wait blocks until in-flight background work (email sends) has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) background(fn func()) {
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				c.logger.Error("background task panicked", "error", fmt.Errorf("%v", err))
			}
		}()

		fn()
	}()
}

// Register wires the coordinator's handlers into the consumer, keyed by
// topic. The wrappers decode and validate the raw payload; payloads that can
// never parse are marked malformed so the consumer drops them instead of
// redelivering forever.
func (c *Coordinator) Register(consumer *queue.Consumer, validate *validator.Validate) {
	consumer.Handle(queue.TopicPaymentApproved, func(ctx context.Context, body []byte) error {
		var event queue.PaymentApprovedEvent

		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
		}
		if err := validate.Struct(event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
		}

		return c.HandlePaymentApproved(ctx, event)
	})

	consumer.Handle(queue.TopicPaymentExpired, func(ctx context.Context, body []byte) error {
		var event queue.PaymentExpiredEvent

		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
		}
		if err := validate.Struct(event); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrMalformedMessage, err)
		}

		return c.HandlePaymentExpired(ctx, event)
	})
}

// HandlePaymentApproved confirms the reservation the payment was created for.
// Duplicate deliveries and approvals that lost the expiry race are swallowed;
// only transient failures propagate, which leaves the message unacknowledged
// for redelivery.
func (c *Coordinator) HandlePaymentApproved(ctx context.Context, event queue.PaymentApprovedEvent) error {
	reservationID, err := c.payments.ReservationIDForPayment(ctx, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.logger.Warn("payment approved for unknown payment, discarding",
				"payment_id", event.ID, "user_id", event.UserID)
			return nil
		}
		return fmt.Errorf("resolve payment %s: %w", event.ID, err)
	}

	reservation, err := c.ledger.Confirm(ctx, reservationID, event.ApprovedAt)
	switch {
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		c.logger.Debug("duplicate payment approval, no-op",
			"payment_id", event.ID, "reservation_id", reservationID)
		return nil
	case errors.Is(err, domain.ErrRecordNotFound):
		c.logger.Warn("payment approved for a hold that no longer exists, discarding",
			"payment_id", event.ID, "reservation_id", reservationID)
		return nil
	case err != nil:
		return fmt.Errorf("confirm reservation %s: %w", reservationID, err)
	}

	c.logger.Info("reservation confirmed",
		"reservation_id", reservation.ID,
		"seat_instance_id", reservation.SeatInstanceID,
		"payment_id", event.ID,
		"amount_in_cents", event.AmountInCents)

	if event.CustomerEmail != nil {
		c.sendConfirmationEmail(*event.CustomerEmail, reservation)
	}

	return nil
}

// sendConfirmationEmail delivers the confirmation in the background; the seat
// is already sold, so a failed send is logged and never unwinds the confirm.
func (c *Coordinator) sendConfirmationEmail(recipient string, reservation *domain.Reservation) {
	data := map[string]any{
		"ReservationID":  reservation.ID,
		"ShowingID":      reservation.ShowingID,
		"SeatInstanceID": reservation.SeatInstanceID,
	}

	c.background(func() {
		err := c.mailer.Send(recipient, "reservation_confirmed.tmpl", data)
		if err != nil {
			c.logger.Error("failed to send confirmation email",
				"reservation_id", reservation.ID, "error", err)
		}
	})
}

// HandlePaymentExpired releases the seat held for the payment's reservation.
// When confirmation won the race, or the watcher already released the hold,
// nothing happens and no event is emitted.
func (c *Coordinator) HandlePaymentExpired(ctx context.Context, event queue.PaymentExpiredEvent) error {
	reservationID, err := c.payments.ReservationIDForPayment(ctx, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.logger.Warn("payment expiry for unknown payment, discarding", "payment_id", event.ID)
			return nil
		}
		return fmt.Errorf("resolve payment %s: %w", event.ID, err)
	}

	reservation, released, err := c.ledger.Release(ctx, reservationID, event.ExpiredAt)
	switch {
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		c.logger.Debug("payment expiry lost the race to an approval, no-op",
			"payment_id", event.ID, "reservation_id", reservationID)
		return nil
	case errors.Is(err, domain.ErrRecordNotFound):
		c.logger.Warn("payment expiry for unknown reservation, discarding",
			"payment_id", event.ID, "reservation_id", reservationID)
		return nil
	case err != nil:
		return fmt.Errorf("release reservation %s: %w", reservationID, err)
	}

	if released {
		c.publishSeatReleased(ctx, reservation.ID, event.ExpiredAt)
	}

	return nil
}

// ReleaseExpiredReservations is the backstop release path used by the
// expiration watcher. It shares the ledger's Release contract with the
// payment-expired handler, so the two can race safely.
func (c *Coordinator) ReleaseExpiredReservations(ctx context.Context) (int, error) {
	now := c.clock.Now()

	expired, err := c.ledger.FindExpired(ctx, now, c.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired reservations: %w", err)
	}

	count := 0
	var errs []error

	for _, reservation := range expired {
		_, released, err := c.ledger.Release(ctx, reservation.ID, now)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyConfirmed) || errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}

		if released {
			count++
			c.publishSeatReleased(ctx, reservation.ID, now)
		}
	}

	return count, errors.Join(errs...)
}

// publishSeatReleased emits the event after the release committed. A publish
// failure is logged rather than propagated: retrying the already-released
// reservation would not re-emit the event anyway.
func (c *Coordinator) publishSeatReleased(ctx context.Context, reservationID string, releasedAt time.Time) {
	event := queue.SeatReleasedEvent{
		ID:         reservationID,
		ReleasedAt: releasedAt,
	}

	err := c.publisher.Publish(ctx, queue.TopicSeatReleased, event)
	if err != nil {
		c.logger.Error("failed to publish seat released event",
			"reservation_id", reservationID, "error", err)
		return
	}

	c.logger.Info("seat released", "reservation_id", reservationID, "released_at", releasedAt)
}
