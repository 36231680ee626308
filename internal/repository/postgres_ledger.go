package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSeatLedger implements domain.SeatLedger. Every mutation is a
// conditional write guarded by the seat's availability flag or the
// reservation's confirmed/released markers, so concurrent callers serialize
// on the database row instead of any in-process lock.
type PostgresSeatLedger struct {
	db *pgxpool.Pool
}

func NewPostgresSeatLedger(db *pgxpool.Pool) *PostgresSeatLedger {
	return &PostgresSeatLedger{
		db: db,
	}
}

const reservationColumns = `id, seat_instance_id, showing_id, user_id, created_at, expires_at, confirmed_at, released_at`

func (l *PostgresSeatLedger) TryReserve(ctx context.Context, params domain.ReserveParams) (*domain.Reservation, error) {
	reservation := &domain.Reservation{
		ID:             params.ReservationID,
		SeatInstanceID: params.SeatInstanceID,
		ShowingID:      params.ShowingID,
		UserID:         params.UserID,
		CreatedAt:      params.CreatedAt,
		ExpiresAt:      params.ExpiresAt,
	}

	err := runInTx(ctx, l.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reservations (id, seat_instance_id, showing_id, user_id, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		_, err := tx.Exec(
			ctx,
			query,
			params.ReservationID,
			params.SeatInstanceID,
			params.ShowingID,
			params.UserID,
			params.CreatedAt,
			params.ExpiresAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case pgerrcode.ForeignKeyViolation:
					return domain.ErrRecordNotFound
				case pgerrcode.UniqueViolation:
					// The partial unique index on active reservations lost a
					// race to another hold on the same seat.
					return domain.ErrSeatNotAvailable
				}
			}
			return err
		}

		query = `
			UPDATE seat_instances
			SET available = FALSE, active_reservation_id = $1
			WHERE id = $2 AND available = TRUE
		`

		tag, err := tx.Exec(ctx, query, params.ReservationID, params.SeatInstanceID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			err = tx.QueryRow(
				ctx,
				`SELECT EXISTS (SELECT 1 FROM seat_instances WHERE id = $1)`,
				params.SeatInstanceID,
			).Scan(&exists)
			if err != nil {
				return err
			}

			if !exists {
				return domain.ErrRecordNotFound
			}
			return domain.ErrSeatNotAvailable
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (l *PostgresSeatLedger) Confirm(ctx context.Context, reservationID string, confirmedAt time.Time) (*domain.Reservation, error) {
	var reservation domain.Reservation

	err := runInTx(ctx, l.db, func(tx pgx.Tx) error {
		query := `
			UPDATE reservations
			SET confirmed_at = $2
			WHERE id = $1
				AND confirmed_at IS NULL
				AND released_at IS NULL
				AND expires_at > $2
			RETURNING ` + reservationColumns

		err := scanReservation(tx.QueryRow(ctx, query, reservationID, confirmedAt), &reservation)
		if errors.Is(err, pgx.ErrNoRows) {
			return classifyConfirmMiss(ctx, tx, reservationID)
		}
		if err != nil {
			return err
		}

		query = `
			UPDATE seat_instances
			SET available = FALSE, sold_at = $2, active_reservation_id = NULL
			WHERE id = $1
		`

		tag, err := tx.Exec(ctx, query, reservation.SeatInstanceID, confirmedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrStorageFailure
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &reservation, nil
}

// classifyConfirmMiss explains why the conditional confirm matched nothing.
// A released or expired hold looks the same to the caller: the reservation it
// tried to confirm no longer exists as a confirmable hold.
func classifyConfirmMiss(ctx context.Context, tx pgx.Tx, reservationID string) error {
	var confirmedAt, releasedAt *time.Time

	err := tx.QueryRow(
		ctx,
		`SELECT confirmed_at, released_at FROM reservations WHERE id = $1`,
		reservationID,
	).Scan(&confirmedAt, &releasedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	if err != nil {
		return err
	}

	if confirmedAt != nil {
		return domain.ErrAlreadyConfirmed
	}

	return domain.ErrRecordNotFound
}

func (l *PostgresSeatLedger) Release(ctx context.Context, reservationID string, releasedAt time.Time) (*domain.Reservation, bool, error) {
	var reservation domain.Reservation
	released := false

	err := runInTx(ctx, l.db, func(tx pgx.Tx) error {
		query := `
			UPDATE reservations
			SET released_at = $2
			WHERE id = $1
				AND confirmed_at IS NULL
				AND released_at IS NULL
			RETURNING ` + reservationColumns

		err := scanReservation(tx.QueryRow(ctx, query, reservationID, releasedAt), &reservation)
		if errors.Is(err, pgx.ErrNoRows) {
			return classifyReleaseMiss(ctx, tx, reservationID, &reservation)
		}
		if err != nil {
			return err
		}

		released = true

		// Sold seats never go back to the pool.
		query = `
			UPDATE seat_instances
			SET available = TRUE, active_reservation_id = NULL
			WHERE id = $1 AND sold_at IS NULL
		`

		_, err = tx.Exec(ctx, query, reservation.SeatInstanceID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return &reservation, released, nil
}

// classifyReleaseMiss distinguishes a confirmation that won the race from a
// duplicate release. The duplicate is a benign no-op and returns the row as
// it stands.
func classifyReleaseMiss(ctx context.Context, tx pgx.Tx, reservationID string, reservation *domain.Reservation) error {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	err := scanReservation(tx.QueryRow(ctx, query, reservationID), reservation)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	if err != nil {
		return err
	}

	if reservation.ConfirmedAt != nil {
		return domain.ErrAlreadyConfirmed
	}

	return nil
}

func (l *PostgresSeatLedger) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE expires_at <= $1
			AND confirmed_at IS NULL
			AND released_at IS NULL
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := l.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)

	for rows.Next() {
		var reservation domain.Reservation

		err = scanReservation(rows, &reservation)
		if err != nil {
			return nil, err
		}

		reservations = append(reservations, reservation)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

func (l *PostgresSeatLedger) GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	var reservation domain.Reservation

	err := scanReservation(l.db.QueryRow(ctx, query, reservationID), &reservation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return &reservation, nil
}

func scanReservation(row pgx.Row, reservation *domain.Reservation) error {
	return row.Scan(
		&reservation.ID,
		&reservation.SeatInstanceID,
		&reservation.ShowingID,
		&reservation.UserID,
		&reservation.CreatedAt,
		&reservation.ExpiresAt,
		&reservation.ConfirmedAt,
		&reservation.ReleasedAt,
	)
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
