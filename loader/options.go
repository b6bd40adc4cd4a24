package loader

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/internal/metrics"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger.With(zap.String("component", "loader"))
		}
	}
}

// WithMetrics attaches a Prometheus collector mirroring the loader stats.
func WithMetrics(collector *metrics.Collector) Option {
	return func(l *Loader) {
		l.metrics = collector
	}
}

// WithTracer sets the tracer used to span LoadPackage calls.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loader) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithPreloadConcurrency bounds how many packages PreloadPackages loads at
// once. Values below 1 fall back to the default.
func WithPreloadConcurrency(n int) Option {
	return func(l *Loader) {
		if n >= 1 {
			l.preloadConcurrency = n
		}
	}
}
