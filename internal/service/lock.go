package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/craft-nft/internal/usecase"
)

var _ usecase.InflightGuard = (*InflightLock)(nil)

// InflightLock is a best-effort mutual exclusion backed by redis SETNX.
type InflightLock struct {
	rdb *redis.Client
}

func NewInflightLock(rdb *redis.Client) *InflightLock {
	return &InflightLock{rdb: rdb}
}

func (l *InflightLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (l *InflightLock) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}
