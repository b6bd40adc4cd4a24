package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/bundleflow/internal/tlsutil"
)

// HTTPConfig configures the HTTP fetcher.
type HTTPConfig struct {
	// Request timeout per download.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Upper bound on accepted bundle size. Zero means no limit.
	MaxBundleBytes int64 `yaml:"max_bundle_bytes" json:"max_bundle_bytes"`

	// Downloads per second against the remote store. Zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`

	// Burst size for the rate limiter.
	RateBurst int `yaml:"rate_burst" json:"rate_burst"`
}

// DefaultHTTPConfig returns the default HTTP fetcher configuration.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:        30 * time.Second,
		MaxBundleBytes: 64 << 20, // 64 MB
	}
}

// HTTPFetcher downloads bundles over http/https.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	config  HTTPConfig
	logger  *zap.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(config HTTPConfig, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &HTTPFetcher{
		client: tlsutil.Client(config.Timeout),
		config: config,
		logger: logger.With(zap.String("component", "http_fetcher")),
	}
	if config.RatePerSecond > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}
	return f
}

// Download fetches the bundle at location. A non-2xx response or an
// unreachable store yields a *FetchError.
func (f *HTTPFetcher) Download(ctx context.Context, location string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Location: location, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Location: location, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body := io.Reader(resp.Body)
	if f.config.MaxBundleBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxBundleBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	if f.config.MaxBundleBytes > 0 && int64(len(data)) > f.config.MaxBundleBytes {
		return nil, &FetchError{Location: location,
			Err: fmt.Errorf("bundle exceeds %d bytes", f.config.MaxBundleBytes)}
	}

	f.logger.Debug("bundle downloaded",
		zap.String("location", location),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return data, nil
}
