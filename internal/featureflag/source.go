package featureflag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	ErrThrottled        = errors.New("remote config fetch throttled")
	ErrPermissionDenied = errors.New("remote config permission denied")
	ErrUnsupported      = errors.New("remote config not supported")
)

// Source fetches the raw remote key/value set. Implementations honor ctx
// cancellation and report throttling and permission problems with the
// package's sentinel errors.
type Source interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// UnsupportedSource is used when no remote config backend is configured.
type UnsupportedSource struct{}

func (UnsupportedSource) Fetch(context.Context) (map[string]string, error) {
	return nil, ErrUnsupported
}

// RedisSource reads flags from a single Redis hash.
type RedisSource struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisSource(rdb redis.UniversalClient, key string) *RedisSource {
	return &RedisSource{rdb: rdb, key: key}
}

func (s *RedisSource) Fetch(ctx context.Context) (map[string]string, error) {
	values, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		if strings.HasPrefix(err.Error(), "NOPERM") {
			return nil, fmt.Errorf("hgetall %s: %w", s.key, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}
	return values, nil
}
