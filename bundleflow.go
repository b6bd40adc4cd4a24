// Package bundleflow provides a top-level convenience entry point for
// embedding the bundle loader with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/bundleflow"
//
//	resolver := registry.NewStaticResolver(registry.PackageMetadata{
//	    Key:            "customer-support",
//	    BundleLocation: "https://bundles.example.com/customer-support-v3",
//	})
//	l, err := bundleflow.New(resolver, bundleflow.WithCacheDir("/var/cache/bundleflow"))
//	mod, err := l.LoadPackage(ctx, "customer-support")
//
// This wires the default stack: an in-process memory tier, a disk tier, an
// HTTP(S) fetcher, and the declarative manifest materializer. For anything
// beyond that, construct [loader.New] directly.
package bundleflow

import (
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/cache"
	"github.com/BaSui01/bundleflow/fetch"
	"github.com/BaSui01/bundleflow/loader"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/runtime"
)

type options struct {
	cacheDir     string
	logger       *zap.Logger
	fetcher      fetch.Fetcher
	materializer runtime.Materializer
	loaderOpts   []loader.Option
}

// Option configures the loader created by [New].
type Option func(*options)

// WithCacheDir sets the disk tier directory. Defaults to a fresh
// temporary directory.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFetcher replaces the default HTTP(S) fetcher.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithMaterializer replaces the default manifest materializer.
func WithMaterializer(m runtime.Materializer) Option {
	return func(o *options) { o.materializer = m }
}

// WithLoaderOptions appends options passed through to [loader.New].
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(o *options) { o.loaderOpts = append(o.loaderOpts, opts...) }
}

// New creates a [loader.Loader] over the default local tiers.
func New(resolver registry.Resolver, opts ...Option) (*loader.Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.cacheDir == "" {
		dir, err := os.MkdirTemp("", "bundleflow-*")
		if err != nil {
			return nil, err
		}
		o.cacheDir = dir
	}
	disk, err := cache.NewDiskCache(o.cacheDir, o.logger)
	if err != nil {
		return nil, err
	}

	if o.fetcher == nil {
		httpFetcher := fetch.NewHTTPFetcher(fetch.DefaultHTTPConfig(), o.logger)
		mux := fetch.NewSchemeMux()
		mux.Register("http", httpFetcher)
		mux.Register("https", httpFetcher)
		o.fetcher = mux
	}
	if o.materializer == nil {
		o.materializer = runtime.NewManifestMaterializer(o.logger)
	}

	loaderOpts := o.loaderOpts
	if o.logger != nil {
		loaderOpts = append([]loader.Option{loader.WithLogger(o.logger)}, loaderOpts...)
	}

	return loader.New(resolver, cache.NewMemoryCache(o.logger), disk,
		o.fetcher, o.materializer, loaderOpts...)
}
