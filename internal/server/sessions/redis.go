package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "session:"

// RedisRegistry stores sessions in Redis so several server instances can
// share them. Keys carry a TTL equal to the session lifetime; Validate still
// checks CreatedAt against the registry clock.
type RedisRegistry struct {
	client *redis.Client
	opts   options
}

// NewRedisRegistry connects to the Redis server at url and pings it.
func NewRedisRegistry(ctx context.Context, url string, opts ...Option) (*RedisRegistry, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	redisOpts.DialTimeout = 5 * time.Second
	redisOpts.ReadTimeout = 3 * time.Second
	redisOpts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisRegistryFromClient(client, opts...), nil
}

func NewRedisRegistryFromClient(client *redis.Client, opts ...Option) *RedisRegistry {
	return &RedisRegistry{client: client, opts: newOptions(opts)}
}

func (r *RedisRegistry) Issue(ctx context.Context, userID int64, username string, isAdmin bool) (string, error) {
	for range maxIssueAttempts {
		token, err := r.opts.newToken()
		if err != nil {
			return "", fmt.Errorf("session: failed to generate token: %w", err)
		}

		data, err := json.Marshal(Session{
			UserID:    userID,
			Username:  username,
			IsAdmin:   isAdmin,
			CreatedAt: r.opts.now(),
		})
		if err != nil {
			return "", err
		}

		ok, err := r.client.SetNX(ctx, redisKeyPrefix+token, data, common.SessionLifetime).Result()
		if err != nil {
			return "", fmt.Errorf("%w: redis setnx: %v", common.ErrStorageFailure, err)
		}
		if ok {
			return token, nil
		}
	}
	return "", errTokenCollision
}

func (r *RedisRegistry) Validate(ctx context.Context, token string) (*Session, error) {
	key := redisKeyPrefix + token

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrTokenInvalidOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get: %v", common.ErrStorageFailure, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		r.client.Del(ctx, key)
		return nil, common.ErrTokenInvalidOrExpired
	}

	if s.ExpiredAt(r.opts.now()) {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("%w: redis del: %v", common.ErrStorageFailure, err)
		}
		return nil, common.ErrTokenInvalidOrExpired
	}

	s.Token = token
	return &s, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", common.ErrStorageFailure, err)
	}
	return nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
