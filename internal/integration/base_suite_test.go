package integration_test

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/cinegate/seat-booking-system/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName      = "seat_booking"
	dbUser      = "test_user"
	dbPassword  = "test_password"
	dbImageName = "postgres:17-alpine"
)

type BaseSuite struct {
	suite.Suite
	dbContainer *PostgresContainer
	db          *pgxpool.Pool
	ledger      *repository.PostgresSeatLedger
	showings    *repository.PostgresShowingRepository
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	s.dbContainer = postgresContainer

	db, err := pgxpool.New(ctx, postgresContainer.ConnectionString)
	if err != nil {
		log.Printf("cannot create connection pool: %s", err)
		return
	}

	s.db = db
	s.ledger = repository.NewPostgresSeatLedger(db)
	s.showings = repository.NewPostgresShowingRepository(db)
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

func (s *BaseSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.db.Exec(ctx, `TRUNCATE reservations, seat_instances, showings RESTART IDENTITY CASCADE`)
	require.NoError(s.T(), err)
}

func (s *BaseSuite) createShowing(t testing.TB, startTime time.Time) int {
	var id int
	err := s.db.QueryRow(context.Background(), `
		INSERT INTO showings (movie_id, hall_id, price, start_time)
		VALUES (1, 1, 12.50, $1)
		RETURNING id`, startTime).Scan(&id)
	require.NoError(t, err)

	return id
}

func (s *BaseSuite) createSeatInstance(t testing.TB, showingID, seatID int) int {
	var id int
	err := s.db.QueryRow(context.Background(), `
		INSERT INTO seat_instances (seat_id, showing_id)
		VALUES ($1, $2)
		RETURNING id`, seatID, showingID).Scan(&id)
	require.NoError(t, err)

	return id
}
