package repository

import (
	"context"
	"errors"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresShowingRepository reads catalog data owned by catalog management.
// The booking core never writes these tables.
type PostgresShowingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowingRepository(db *pgxpool.Pool) *PostgresShowingRepository {
	return &PostgresShowingRepository{
		db: db,
	}
}

func (p *PostgresShowingRepository) GetById(ctx context.Context, id int) (*domain.Showing, error) {
	query := `
		SELECT id, movie_id, hall_id, price, start_time
		FROM showings
		WHERE id = $1
	`

	var showing domain.Showing

	err := p.db.QueryRow(ctx, query, id).Scan(
		&showing.ID,
		&showing.MovieID,
		&showing.HallID,
		&showing.Price,
		&showing.StartTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return &showing, nil
}

func (p *PostgresShowingRepository) GetSeatInstance(ctx context.Context, showingID, seatInstanceID int) (*domain.SeatInstance, error) {
	query := `
		SELECT id, seat_id, showing_id, available, active_reservation_id, sold_at, created_at
		FROM seat_instances
		WHERE id = $1 AND showing_id = $2
	`

	var seatInstance domain.SeatInstance

	err := p.db.QueryRow(ctx, query, seatInstanceID, showingID).Scan(
		&seatInstance.ID,
		&seatInstance.SeatID,
		&seatInstance.ShowingID,
		&seatInstance.Available,
		&seatInstance.ActiveReservationID,
		&seatInstance.SoldAt,
		&seatInstance.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return &seatInstance, nil
}

func (p *PostgresShowingRepository) GetSeatInstancesByShowing(ctx context.Context, showingID int) ([]domain.SeatInstance, error) {
	query := `
		SELECT id, seat_id, showing_id, available, active_reservation_id, sold_at, created_at
		FROM seat_instances
		WHERE showing_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatInstances := make([]domain.SeatInstance, 0)

	for rows.Next() {
		var seatInstance domain.SeatInstance

		err = rows.Scan(
			&seatInstance.ID,
			&seatInstance.SeatID,
			&seatInstance.ShowingID,
			&seatInstance.Available,
			&seatInstance.ActiveReservationID,
			&seatInstance.SoldAt,
			&seatInstance.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		seatInstances = append(seatInstances, seatInstance)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatInstances, nil
}
