package fetch

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisFetcher) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisFetcher(client, nil)
}

func TestRedisFetcher_Download(t *testing.T) {
	mr, f := setupTestRedis(t)
	require.NoError(t, mr.Set("bundles/customer-support-v3", "raw bundle bytes"))

	data, err := f.Download(context.Background(), "redis://store/bundles/customer-support-v3")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bundle bytes"), data)
}

func TestRedisFetcher_Download_MissingKey(t *testing.T) {
	_, f := setupTestRedis(t)

	_, err := f.Download(context.Background(), "redis://store/bundles/missing")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.Status)
}

func TestSchemeMux_Routing(t *testing.T) {
	mr, rf := setupTestRedis(t)
	require.NoError(t, mr.Set("b", "from-redis"))

	mux := NewSchemeMux()
	mux.Register("redis", rf)

	data, err := mux.Download(context.Background(), "redis://store/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-redis"), data)

	_, err = mux.Download(context.Background(), "gopher://store/b")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Error(), "gopher")
}
