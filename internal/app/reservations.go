package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/cinegate/seat-booking-system/internal/queue"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	ReservationStatusActive    = "ACTIVE"
	ReservationStatusConfirmed = "CONFIRMED"
	ReservationStatusReleased  = "RELEASED"
	ReservationStatusExpired   = "EXPIRED"
)

type CreateReservationRequest struct {
	UserId int `json:"userId" validate:"required,gt=0"`
}

type ReservationResponse struct {
	Id             string     `json:"id"`
	ShowingId      int        `json:"showingId"`
	SeatInstanceId int        `json:"seatInstanceId"`
	UserId         int        `json:"userId"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	ConfirmedAt    *time.Time `json:"confirmedAt,omitempty"`
	ReleasedAt     *time.Time `json:"releasedAt,omitempty"`
}

// CreateReservationHandler places a tentative hold on a seat instance. The
// hold either lands atomically or the request fails with a conflict; there is
// no partial state to clean up on the client's behalf.
func (app *Application) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	showingID, err := app.readIntPathParam(r, "showingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatInstanceID, err := app.readIntPathParam(r, "seatInstanceID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input CreateReservationRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seatInstance, err := app.showingRepo.GetSeatInstance(r.Context(), showingID, seatInstanceID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponseWithErr(w, r, fmt.Errorf("seat instance %d not found for showing %d", seatInstanceID, showingID))
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	now := app.clock.Now()

	reservation, err := app.seatLedger.TryReserve(r.Context(), domain.ReserveParams{
		ReservationID:  uuid.NewString(),
		SeatInstanceID: seatInstance.ID,
		ShowingID:      showingID,
		UserID:         input.UserId,
		CreatedAt:      now,
		ExpiresAt:      now.Add(app.config.Reservation.HoldDuration),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatNotAvailable):
			app.editConflictResponseWithErr(w, r, fmt.Errorf("seat %d is no longer available", seatInstanceID))
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.publishReservationCreated(r, reservation)

	resp := toReservationResponse(reservation, now)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationHandler(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservationID")

	if _, err := uuid.Parse(reservationID); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid reservation ID"))
		return
	}

	reservation, err := app.seatLedger.GetByID(r.Context(), reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toReservationResponse(reservation, app.clock.Now())

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// The hold itself is already durable, so a failed publish is logged and the
// request still succeeds. Downstream consumers tolerate the gap.
func (app *Application) publishReservationCreated(r *http.Request, reservation *domain.Reservation) {
	event := queue.ReservationCreatedEvent{
		ID:             reservation.ID,
		ShowingID:      reservation.ShowingID,
		UserID:         reservation.UserID,
		SeatInstanceID: reservation.SeatInstanceID,
		CreatedAt:      reservation.CreatedAt,
		ExpiresAt:      reservation.ExpiresAt,
	}

	err := app.publisher.Publish(r.Context(), queue.TopicReservationCreated, event)
	if err != nil {
		app.logger.Error("failed to publish reservation created event",
			"reservation_id", reservation.ID, "error", err)
	}
}

func toReservationResponse(reservation *domain.Reservation, now time.Time) ReservationResponse {
	return ReservationResponse{
		Id:             reservation.ID,
		ShowingId:      reservation.ShowingID,
		SeatInstanceId: reservation.SeatInstanceID,
		UserId:         reservation.UserID,
		Status:         reservationStatus(reservation, now),
		CreatedAt:      reservation.CreatedAt,
		ExpiresAt:      reservation.ExpiresAt,
		ConfirmedAt:    reservation.ConfirmedAt,
		ReleasedAt:     reservation.ReleasedAt,
	}
}

func reservationStatus(reservation *domain.Reservation, now time.Time) string {
	switch {
	case reservation.ConfirmedAt != nil:
		return ReservationStatusConfirmed
	case reservation.ReleasedAt != nil:
		return ReservationStatusReleased
	case reservation.Expired(now):
		return ReservationStatusExpired
	default:
		return ReservationStatusActive
	}
}
