package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// The binding must outlive the hold: payment.expired arrives at or after the
// deadline and still has to resolve to a reservation.
const paymentCorrelationSlack = 5 * time.Minute

type CheckoutSessionResponse struct {
	PaymentId   string `json:"paymentId"`
	RedirectUrl string `json:"redirectUrl"`
}

// CreateCheckoutSessionHandler starts a payment for an active hold. The
// payment ID is bound to the reservation for as long as the hold lasts;
// an approval arriving after the binding expired is treated as unknown.
func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
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

	now := app.clock.Now()
	if !reservation.Active(now) {
		app.editConflictResponseWithErr(w, r, fmt.Errorf("reservation %s is no longer active", reservationID))
		return
	}

	showing, err := app.showingRepo.GetById(r.Context(), reservation.ShowingID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	paymentID := uuid.NewString()

	checkoutSession, err := app.checkout.CreateCheckoutSession(paymentID, *reservation, *showing)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.payments.Bind(r.Context(), paymentID, reservationID, reservation.ExpiresAt.Sub(now)+paymentCorrelationSlack)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := CheckoutSessionResponse{
		PaymentId:   paymentID,
		RedirectUrl: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
