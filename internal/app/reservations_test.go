package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/cinegate/seat-booking-system/internal/mocks"
	"github.com/cinegate/seat-booking-system/internal/queue"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReservationsTestSuite struct {
	suite.Suite
	app         *Application
	seatLedger  *mocks.MockSeatLedger
	showingRepo *mocks.MockShowingRepo
	publisher   *mocks.MockPublisher
	now         time.Time
}

func (s *ReservationsTestSuite) SetupTest() {
	s.seatLedger = new(mocks.MockSeatLedger)
	s.showingRepo = new(mocks.MockShowingRepo)
	s.publisher = new(mocks.MockPublisher)

	s.app = newTestApplication(func(a *Application) {
		a.seatLedger = s.seatLedger
		a.showingRepo = s.showingRepo
		a.publisher = s.publisher
	})

	s.now = s.app.clock.Now()
}

func TestReservationsSuite(t *testing.T) {
	suite.Run(t, new(ReservationsTestSuite))
}

const testReservationID = "3e8b9f0c-5a74-4f4e-9a2e-2b6d1c7e8f90"

func (s *ReservationsTestSuite) activeReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:             testReservationID,
		SeatInstanceID: 7,
		ShowingID:      3,
		UserID:         42,
		CreatedAt:      s.now,
		ExpiresAt:      s.now.Add(15 * time.Minute),
	}
}

func (s *ReservationsTestSuite) TestCreateReservationHandler() {
	tests := []struct {
		name           string
		showingID      string
		seatInstanceID string
		body           any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when showing ID is not a positive integer",
			showingID:      "abc",
			seatInstanceID: "7",
			body:           CreateReservationRequest{UserId: 42},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid showingID parameter",
		},
		{
			name:           "should fail when seat instance ID is not a positive integer",
			showingID:      "3",
			seatInstanceID: "0",
			body:           CreateReservationRequest{UserId: 42},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid seatInstanceID parameter",
		},
		{
			name:           "should fail when user ID is missing",
			showingID:      "3",
			seatInstanceID: "7",
			body:           map[string]any{},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "should fail when seat instance does not exist",
			showingID:      "3",
			seatInstanceID: "999",
			body:           CreateReservationRequest{UserId: 42},
			setupMocks: func() {
				s.showingRepo.On("GetSeatInstance", mock.Anything, 3, 999).
					Return(nil, domain.ErrRecordNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: "seat instance 999 not found for showing 3",
		},
		{
			name:           "should fail with conflict when seat is already held",
			showingID:      "3",
			seatInstanceID: "7",
			body:           CreateReservationRequest{UserId: 42},
			setupMocks: func() {
				s.showingRepo.On("GetSeatInstance", mock.Anything, 3, 7).
					Return(&domain.SeatInstance{ID: 7, ShowingID: 3, Available: false}, nil)
				s.seatLedger.On("TryReserve", mock.Anything, mock.Anything).
					Return(nil, domain.ErrSeatNotAvailable)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "seat 7 is no longer available",
		},
		{
			name:           "should fail when the ledger write fails",
			showingID:      "3",
			seatInstanceID: "7",
			body:           CreateReservationRequest{UserId: 42},
			setupMocks: func() {
				s.showingRepo.On("GetSeatInstance", mock.Anything, 3, 7).
					Return(&domain.SeatInstance{ID: 7, ShowingID: 3, Available: true}, nil)
				s.seatLedger.On("TryReserve", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name:           "should create reservation and publish event",
			showingID:      "3",
			seatInstanceID: "7",
			body:           CreateReservationRequest{UserId: 42},
			setupMocks: func() {
				s.showingRepo.On("GetSeatInstance", mock.Anything, 3, 7).
					Return(&domain.SeatInstance{ID: 7, ShowingID: 3, Available: true}, nil)
				s.seatLedger.On("TryReserve", mock.Anything, mock.MatchedBy(func(params domain.ReserveParams) bool {
					return params.SeatInstanceID == 7 &&
						params.ShowingID == 3 &&
						params.UserID == 42 &&
						params.ExpiresAt.Equal(params.CreatedAt.Add(15*time.Minute))
				})).Return(s.activeReservation(), nil)
				s.publisher.On("Publish", mock.Anything, queue.TopicReservationCreated, mock.Anything).
					Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:           "should still create reservation when event publish fails",
			showingID:      "3",
			seatInstanceID: "7",
			body:           CreateReservationRequest{UserId: 42},
			setupMocks: func() {
				s.showingRepo.On("GetSeatInstance", mock.Anything, 3, 7).
					Return(&domain.SeatInstance{ID: 7, ShowingID: 3, Available: true}, nil)
				s.seatLedger.On("TryReserve", mock.Anything, mock.Anything).
					Return(s.activeReservation(), nil)
				s.publisher.On("Publish", mock.Anything, queue.TopicReservationCreated, mock.Anything).
					Return(fmt.Errorf("broker unreachable"))
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			url := fmt.Sprintf("/showings/%s/seats/%s/reservations", tt.showingID, tt.seatInstanceID)
			w, r := executeRequest(s.T(), http.MethodPost, url, tt.body)
			r = withURLParams(r, map[string]string{
				"showingID":      tt.showingID,
				"seatInstanceID": tt.seatInstanceID,
			})

			s.app.CreateReservationHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantStatus == http.StatusCreated {
				var resp ReservationResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				s.NoError(err)

				s.Equal(testReservationID, resp.Id)
				s.Equal(3, resp.ShowingId)
				s.Equal(7, resp.SeatInstanceId)
				s.Equal(42, resp.UserId)
				s.Equal(ReservationStatusActive, resp.Status)
				s.True(resp.ExpiresAt.Equal(s.now.Add(15 * time.Minute)))
			}

			s.seatLedger.AssertExpectations(s.T())
			s.showingRepo.AssertExpectations(s.T())
			s.publisher.AssertExpectations(s.T())
		})
	}
}

func (s *ReservationsTestSuite) TestGetReservationHandler() {
	confirmed := s.activeReservation()
	confirmed.ConfirmedAt = ptr(s.now.Add(5 * time.Minute))

	released := s.activeReservation()
	released.ReleasedAt = ptr(s.now.Add(20 * time.Minute))

	expired := s.activeReservation()
	expired.ExpiresAt = s.now.Add(-time.Minute)

	tests := []struct {
		name           string
		reservationID  string
		setupMocks     func()
		wantStatus     int
		wantReservStat string
		wantErrMessage string
	}{
		{
			name:           "should fail when reservation ID is not a UUID",
			reservationID:  "not-a-uuid",
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid reservation ID",
		},
		{
			name:          "should fail when reservation does not exist",
			reservationID: testReservationID,
			setupMocks: func() {
				s.seatLedger.On("GetByID", mock.Anything, testReservationID).
					Return(nil, domain.ErrRecordNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:          "should report an active reservation as active",
			reservationID: testReservationID,
			setupMocks: func() {
				s.seatLedger.On("GetByID", mock.Anything, testReservationID).
					Return(s.activeReservation(), nil)
			},
			wantStatus:     http.StatusOK,
			wantReservStat: ReservationStatusActive,
		},
		{
			name:          "should report a confirmed reservation as confirmed",
			reservationID: testReservationID,
			setupMocks: func() {
				s.seatLedger.On("GetByID", mock.Anything, testReservationID).
					Return(confirmed, nil)
			},
			wantStatus:     http.StatusOK,
			wantReservStat: ReservationStatusConfirmed,
		},
		{
			name:          "should report a released reservation as released",
			reservationID: testReservationID,
			setupMocks: func() {
				s.seatLedger.On("GetByID", mock.Anything, testReservationID).
					Return(released, nil)
			},
			wantStatus:     http.StatusOK,
			wantReservStat: ReservationStatusReleased,
		},
		{
			name:          "should report an elapsed hold as expired",
			reservationID: testReservationID,
			setupMocks: func() {
				s.seatLedger.On("GetByID", mock.Anything, testReservationID).
					Return(expired, nil)
			},
			wantStatus:     http.StatusOK,
			wantReservStat: ReservationStatusExpired,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			url := fmt.Sprintf("/reservations/%s", tt.reservationID)
			w, r := executeRequest(s.T(), http.MethodGet, url, nil)
			r = withURLParams(r, map[string]string{"reservationID": tt.reservationID})

			s.app.GetReservationHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantStatus == http.StatusOK {
				var resp ReservationResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				s.NoError(err)

				s.Equal(tt.wantReservStat, resp.Status)
			}

			s.seatLedger.AssertExpectations(s.T())
		})
	}
}
