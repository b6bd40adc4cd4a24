package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisFetcher downloads bundles published to a Redis store. Locations are
// of the form redis://<ignored-host>/<key>; the key is the Redis key
// holding the raw bundle bytes. The connection target comes from the
// client, not the location.
type RedisFetcher struct {
	client *redis.Client
	logger *zap.Logger
}

var _ Fetcher = (*RedisFetcher)(nil)

// NewRedisFetcher creates a Redis-backed fetcher.
func NewRedisFetcher(client *redis.Client, logger *zap.Logger) *RedisFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFetcher{
		client: client,
		logger: logger.With(zap.String("component", "redis_fetcher")),
	}
}

// Download fetches the bundle bytes stored under the location's key.
// A missing key maps to a 404-status FetchError.
func (f *RedisFetcher) Download(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		key = u.Host
	}

	data, err := f.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, &FetchError{Location: location, Status: http.StatusNotFound, Err: err}
	}
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}

	f.logger.Debug("bundle downloaded from redis",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return data, nil
}
