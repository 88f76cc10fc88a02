package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ResetTokenStore implements ports.ResetTokenStore using Redis SET NX and
// GETDEL, so a reset token binds to exactly one user and spends exactly once.
type ResetTokenStore struct {
	client *goredis.Client
	prefix string
}

// NewResetTokenStore creates a new Redis-backed reset token store.
func NewResetTokenStore(client *goredis.Client) *ResetTokenStore {
	return &ResetTokenStore{
		client: client,
		prefix: "pwreset:",
	}
}

// Issue stores a token bound to the user with a TTL. An already-issued token
// value is rejected rather than silently rebound.
func (s *ResetTokenStore) Issue(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.prefix+token, userID.String(), ttl).Result()
	if err != nil {
		return fmt.Errorf("redis reset token issue: %w", err)
	}
	if !ok {
		return fmt.Errorf("reset token collision")
	}
	return nil
}

// Consume atomically fetches and deletes the token's user binding.
// Returns uuid.Nil with nil error if the token is unknown or already spent.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if err != nil {
		if err == goredis.Nil {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("redis reset token consume: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse reset token binding: %w", err)
	}
	return userID, nil
}
