package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
)

const (
	linkKeyPrefix    = "link__"
	sessionKeyPrefix = "sess__"
)

// RedisStore is the production Store. Link tokens live under "link__<token>"
// and sessions under "sess__<token>", both with a TTL enforced by Redis.
type RedisStore struct {
	inner *redis.Client
}

// GetRedisStore connects to the Redis instance specified by env and pings it
// once to fail fast on misconfiguration.
func GetRedisStore() (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, errors.Wrap(err, "fail to connect to redis")
	}
	return &RedisStore{inner: client}, nil
}

func (r *RedisStore) SaveLinkToken(ctx context.Context, token string, email string, ttl time.Duration) error {
	return r.inner.Set(ctx, linkKeyPrefix+token, email, ttl).Err()
}

func (r *RedisStore) TakeLinkToken(ctx context.Context, token string) (string, error) {
	// GETDEL makes the single-use guarantee atomic: concurrent verifications
	// of the same link cannot both succeed.
	email, err := r.inner.GetDel(ctx, linkKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "fail to take link token")
	}
	return email, nil
}

func (r *RedisStore) SaveSession(ctx context.Context, token string, session *model.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "fail to encode session")
	}
	return r.inner.Set(ctx, sessionKeyPrefix+token, payload, ttl).Err()
}

func (r *RedisStore) Session(ctx context.Context, token string) (*model.Session, error) {
	payload, err := r.inner.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to read session")
	}

	var session model.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, errors.Wrap(err, "fail to decode session")
	}
	return &session, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return r.inner.Del(ctx, sessionKeyPrefix+token).Err()
}
