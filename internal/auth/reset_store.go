package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrResetTokenInvalid is returned for unknown, used or expired reset tokens.
var ErrResetTokenInvalid = errors.New("reset token invalid")

const resetKeyPrefix = "password_reset:"

// ResetStore keeps one-time password reset tokens in Redis. Only a hash of
// the token is used as the key.
type ResetStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetStore creates a Redis-backed reset token store.
func NewResetStore(client *redis.Client, ttl time.Duration) *ResetStore {
	return &ResetStore{client: client, ttl: ttl}
}

func resetKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return resetKeyPrefix + hex.EncodeToString(sum[:])
}

// Save stores token for userID until the TTL passes.
func (s *ResetStore) Save(ctx context.Context, token string, userID uuid.UUID) error {
	if err := s.client.Set(ctx, resetKey(token), userID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Consume returns the user the token was issued for and deletes it in the
// same round trip, so a token works at most once.
func (s *ResetStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return id, nil
}
