package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/api/handlers"
	"github.com/BaSui01/bundleflow/loader"
)

// NewMux builds the admin HTTP surface over a loader. registry may be nil
// when no pingable registry backend is configured.
func NewMux(l *loader.Loader, registry handlers.Pinger, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	handlers.NewBundleHandler(l, logger).Register(mux)
	handlers.NewHealthHandler(registry).Register(mux)
	return mux
}
