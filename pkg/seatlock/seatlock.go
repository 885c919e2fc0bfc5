// Package seatlock implements a lease-based mutual-exclusion primitive over
// Redis expiring keys. It keeps two in-flight booking flows from committing
// the same seat before the database transaction lands; the bookings table's
// uniqueness constraint remains the authoritative arbiter if both the lock
// and the occupancy snapshot were stale.
package seatlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "seat_lock:"

// Lock is a seat lease backed by a shared Redis instance. The TTL passed to
// Acquire must equal the booking hold window so a crashed flow self-heals.
type Lock struct {
	client *redis.Client
}

// New returns a Lock bound to the given client.
func New(client *redis.Client) *Lock {
	return &Lock{client: client}
}

// Key builds the lock key for one seat of one reservation.
func Key(reservationID string, seatNumber int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, reservationID, seatNumber)
}

// Acquire attempts an atomic set-if-absent with TTL. It returns false when
// another flow already holds the seat's lease; the caller must treat that
// as a lock miss and not proceed to insert a booking.
func (l *Lock) Acquire(ctx context.Context, reservationID string, seatNumber int, holderToken string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, Key(reservationID, seatNumber), holderToken, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire seat lock: %w", err)
	}
	return ok, nil
}

// Release deletes the lease. Releasing a lock that does not exist is a
// no-op, which makes cancellation and expiry sweeps idempotent.
func (l *Lock) Release(ctx context.Context, reservationID string, seatNumber int) error {
	if err := l.client.Del(ctx, Key(reservationID, seatNumber)).Err(); err != nil {
		return fmt.Errorf("failed to release seat lock: %w", err)
	}
	return nil
}

// Peek returns the current holder token, or ok=false when the seat is not
// locked.
func (l *Lock) Peek(ctx context.Context, reservationID string, seatNumber int) (string, bool, error) {
	holder, err := l.client.Get(ctx, Key(reservationID, seatNumber)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to peek seat lock: %w", err)
	}
	return holder, true, nil
}
