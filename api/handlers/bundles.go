package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/loader"
)

// BundleHandler serves the loader's operations.
type BundleHandler struct {
	loader *loader.Loader
	logger *zap.Logger
}

// NewBundleHandler creates a bundle handler.
func NewBundleHandler(l *loader.Loader, logger *zap.Logger) *BundleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BundleHandler{
		loader: l,
		logger: logger.With(zap.String("component", "bundle_handler")),
	}
}

// Register mounts all bundle routes on mux.
func (h *BundleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/packages/{key}/load", h.HandleLoad)
	mux.HandleFunc("POST /v1/packages/{key}/invoke", h.HandleInvoke)
	mux.HandleFunc("DELETE /v1/packages/{key}", h.HandleInvalidate)
	mux.HandleFunc("POST /v1/packages/preload", h.HandlePreload)
	mux.HandleFunc("DELETE /v1/cache", h.HandleClearCache)
	mux.HandleFunc("GET /v1/cache/keys", h.HandleCachedKeys)
	mux.HandleFunc("GET /v1/stats", h.HandleStats)
	mux.HandleFunc("DELETE /v1/stats", h.HandleResetStats)
}

// LoadResponse is returned by the load endpoint.
type LoadResponse struct {
	Key          string   `json:"key"`
	Version      string   `json:"version,omitempty"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// HandleLoad loads a package through the tiered cache and reports its
// introspection metadata.
func (h *BundleHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	mod, err := h.loader.LoadPackage(r.Context(), key)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	info := mod.Describe()
	WriteSuccess(w, LoadResponse{
		Key:          info.Key,
		Version:      info.Version,
		Description:  info.Description,
		Capabilities: info.Capabilities,
	})
}

// InvokeRequest is the invoke endpoint's request body.
type InvokeRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// HandleInvoke loads a package and invokes its behavior with the given
// input.
func (h *BundleHandler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req InvokeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   &ErrorInfo{Code: "bad_request", Message: fmt.Sprintf("decode body: %v", err)},
			})
			return
		}
	}

	mod, err := h.loader.LoadPackage(r.Context(), key)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out, err := mod.Invoke(r.Context(), req.Input)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, out)
}

// HandleInvalidate removes a package from both local tiers.
func (h *BundleHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.loader.InvalidatePackage(key); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"key": key, "status": "invalidated"})
}

// PreloadRequest is the preload endpoint's request body.
type PreloadRequest struct {
	Keys []string `json:"keys"`
}

// HandlePreload warms the cache for a set of keys.
func (h *BundleHandler) HandlePreload(w http.ResponseWriter, r *http.Request) {
	var req PreloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   &ErrorInfo{Code: "bad_request", Message: fmt.Sprintf("decode body: %v", err)},
		})
		return
	}

	result := h.loader.PreloadPackages(r.Context(), req.Keys)
	WriteSuccess(w, result)
}

// HandleClearCache empties both local tiers.
func (h *BundleHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.loader.ClearCache(); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"status": "cleared"})
}

// CachedKeysResponse reports the memory tier's contents.
type CachedKeysResponse struct {
	Keys []string `json:"keys"`
	Size int      `json:"size"`
}

// HandleCachedKeys reports the keys currently in the memory tier.
func (h *BundleHandler) HandleCachedKeys(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, CachedKeysResponse{
		Keys: h.loader.CachedKeys(),
		Size: h.loader.MemoryCacheSize(),
	})
}

// HandleStats reports the loader counters.
func (h *BundleHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.loader.Stats())
}

// HandleResetStats zeroes the loader counters.
func (h *BundleHandler) HandleResetStats(w http.ResponseWriter, r *http.Request) {
	h.loader.ResetStats()
	WriteSuccess(w, map[string]string{"status": "reset"})
}
