package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/fetch"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/runtime"
)

// Response is the unified API response envelope.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError maps a loader error onto an HTTP status and envelope.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	code := "internal_error"

	var fetchErr *fetch.FetchError
	switch {
	case errors.Is(err, registry.ErrPackageNotFound):
		status = http.StatusNotFound
		code = "package_not_found"
	case runtime.IsInvalidModule(err):
		status = http.StatusBadGateway
		code = "invalid_module"
	case errors.As(err, &fetchErr):
		status = http.StatusBadGateway
		code = "fetch_failed"
	}

	if logger != nil {
		logger.Warn("API error",
			zap.String("code", code),
			zap.Int("status", status),
			zap.Error(err))
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: err.Error()},
		Timestamp: time.Now(),
	})
}
