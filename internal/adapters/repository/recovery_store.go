package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

const recoveryKeyPrefix = "recovery:"

// RedisRecoveryStore keeps recovery token ids in redis with the same
// TTL as the token itself, so a token works exactly once and dies with
// its expiry even if never used.
type RedisRecoveryStore struct {
	client *redis.Client
}

var _ ports.RecoveryTokenStore = (*RedisRecoveryStore)(nil)

func NewRedisRecoveryStore(client *redis.Client) *RedisRecoveryStore {
	return &RedisRecoveryStore{client: client}
}

func (s *RedisRecoveryStore) Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, recoveryKeyPrefix+tokenID, userID, ttl).Err()
}

func (s *RedisRecoveryStore) Consume(ctx context.Context, tokenID string) (int64, error) {
	val, err := s.client.GetDel(ctx, recoveryKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
