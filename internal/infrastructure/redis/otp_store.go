// Package redis backs the OTP contract with TTL'd keys and attempt
// counters.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estate-hub/estate-hub/internal/domain/otp"
)

// OTPStore implements otp.Store.
type OTPStore struct {
	client *redis.Client
}

var _ otp.Store = (*OTPStore)(nil)

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) Put(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, codeHash, ttl)
	pipe.Del(ctx, key+":attempts")
	_, err := pipe.Exec(ctx)
	return err
}

func (s *OTPStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *OTPStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, key+":attempts").Err()
}

func (s *OTPStore) RegisterFailure(ctx context.Context, key string, maxAttempts int, lockFor time.Duration) (bool, error) {
	attempts, err := s.client.Incr(ctx, key+":attempts").Result()
	if err != nil {
		return false, err
	}
	// attempts counter lives as long as a challenge could
	if err := s.client.Expire(ctx, key+":attempts", lockFor).Err(); err != nil {
		return false, err
	}
	if attempts >= int64(maxAttempts) {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, key+":lock", "1", lockFor)
		pipe.Del(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *OTPStore) Locked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key+":lock").Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
