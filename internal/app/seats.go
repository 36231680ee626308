package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/shopspring/decimal"
)

type Seat struct {
	Id        int        `json:"id"`
	SeatId    int        `json:"seatId"`
	Available bool       `json:"available"`
	SoldAt    *time.Time `json:"soldAt,omitempty"`
}

type SeatMapResponse struct {
	ShowingId int             `json:"showingId"`
	MovieId   int             `json:"movieId"`
	HallId    int             `json:"hallId"`
	StartTime time.Time       `json:"startTime"`
	Price     decimal.Decimal `json:"price"`
	Seats     []Seat          `json:"seats"`
}

// GetSeatMapHandler returns the seats of a showing with their current
// availability. The availability flag reflects committed ledger state only,
// so a seat shown as available can still be lost to a concurrent hold.
func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	showingID, err := app.readIntPathParam(r, "showingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showing, err := app.showingRepo.GetById(r.Context(), showingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	seatInstances, err := app.showingRepo.GetSeatInstancesByShowing(r.Context(), showingID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toSeatMapResponse(showing, seatInstances)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(showing *domain.Showing, seatInstances []domain.SeatInstance) SeatMapResponse {
	seats := make([]Seat, len(seatInstances))

	for i, v := range seatInstances {
		seats[i] = Seat{
			Id:        v.ID,
			SeatId:    v.SeatID,
			Available: v.Available,
			SoldAt:    v.SoldAt,
		}
	}

	return SeatMapResponse{
		ShowingId: showing.ID,
		MovieId:   showing.MovieID,
		HallId:    showing.HallID,
		StartTime: showing.StartTime,
		Price:     showing.Price,
		Seats:     seats,
	}
}
