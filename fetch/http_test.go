package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Download(t *testing.T) {
	payload := []byte("key: customer-support\nversion: v3\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bundles/customer-support-v3":
			w.Write(payload)
		case "/bundles/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(DefaultHTTPConfig(), nil)

	t.Run("success", func(t *testing.T) {
		data, err := f.Download(context.Background(), srv.URL+"/bundles/customer-support-v3")
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("non-success status carries through", func(t *testing.T) {
		_, err := f.Download(context.Background(), srv.URL+"/bundles/forbidden")
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusForbidden, fetchErr.Status)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Download(context.Background(), srv.URL+"/bundles/missing")
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusNotFound, fetchErr.Status)
	})
}

func TestHTTPFetcher_Download_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	f := NewHTTPFetcher(DefaultHTTPConfig(), nil)
	_, err := f.Download(context.Background(), srv.URL+"/bundles/x")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.Status)
}

func TestHTTPFetcher_Download_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.MaxBundleBytes = 1024
	f := NewHTTPFetcher(cfg, nil)

	_, err := f.Download(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestHTTPFetcher_Download_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(DefaultHTTPConfig(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Download(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || err != nil)
}

func TestHTTPFetcher_RateLimited(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.RatePerSecond = 1000
	cfg.RateBurst = 1
	f := NewHTTPFetcher(cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := f.Download(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, hits)
}
