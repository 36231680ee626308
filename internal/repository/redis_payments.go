package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cinegate/seat-booking-system/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisPaymentCorrelator stores the payment -> reservation binding created at
// checkout time. Entries carry a TTL slightly longer than the hold they
// belong to; a missing entry means the hold already ran out, which callers
// treat as ErrRecordNotFound.
type RedisPaymentCorrelator struct {
	client redis.UniversalClient
}

func NewRedisPaymentCorrelator(client redis.UniversalClient) *RedisPaymentCorrelator {
	return &RedisPaymentCorrelator{
		client: client,
	}
}

func paymentReservationKey(paymentID string) string {
	return "payment_reservation:" + paymentID
}

func (r *RedisPaymentCorrelator) Bind(ctx context.Context, paymentID, reservationID string, ttl time.Duration) error {
	return r.client.Set(ctx, paymentReservationKey(paymentID), reservationID, ttl).Err()
}

func (r *RedisPaymentCorrelator) ReservationIDForPayment(ctx context.Context, paymentID string) (string, error) {
	reservationID, err := r.client.Get(ctx, paymentReservationKey(paymentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrRecordNotFound
		}
		return "", err
	}

	return reservationID, nil
}
