package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/bundleflow/api"
	"github.com/BaSui01/bundleflow/api/handlers"
	"github.com/BaSui01/bundleflow/cache"
	"github.com/BaSui01/bundleflow/loader"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/runtime"
	"github.com/BaSui01/bundleflow/testutil/mocks"
)

const (
	billingKey      = "billing-assistant"
	billingLocation = "store://bundles/billing-assistant-v1"
)

var billingBundle = []byte(`key: billing-assistant
version: v1
system_prompt: "You answer billing questions for {{plan}} customers."
variables:
  plan: standard
capabilities: [chat]
`)

func newTestMux(t *testing.T) (*http.ServeMux, *loader.Loader) {
	t.Helper()

	resolver := registry.NewStaticResolver(registry.PackageMetadata{
		Key:            billingKey,
		BundleLocation: billingLocation,
	})
	fetcher := mocks.NewMapFetcher()
	fetcher.Put(billingLocation, billingBundle)

	disk, err := cache.NewDiskCache(t.TempDir(), nil)
	require.NoError(t, err)

	l, err := loader.New(resolver, cache.NewMemoryCache(nil), disk, fetcher,
		runtime.NewManifestMaterializer(nil))
	require.NoError(t, err)

	return api.NewMux(l, nil, nil), l
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, handlers.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp handlers.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp),
		"body: %s", rec.Body.String())
	return rec, resp
}

func TestHandleLoad_Success(t *testing.T) {
	mux, _ := newTestMux(t)

	rec, resp := doRequest(t, mux, http.MethodPost, "/v1/packages/billing-assistant/load", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, billingKey, data["key"])
	assert.Equal(t, "v1", data["version"])
}

func TestHandleLoad_NotFound(t *testing.T) {
	mux, _ := newTestMux(t)

	rec, resp := doRequest(t, mux, http.MethodPost, "/v1/packages/no-such-key/load", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "package_not_found", resp.Error.Code)
}

func TestHandleInvoke(t *testing.T) {
	mux, _ := newTestMux(t)

	rec, resp := doRequest(t, mux, http.MethodPost,
		"/v1/packages/billing-assistant/invoke", `{"input":{"plan":"enterprise"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["prompt"], "enterprise")
}

func TestHandleInvoke_BadBody(t *testing.T) {
	mux, _ := newTestMux(t)

	rec, resp := doRequest(t, mux, http.MethodPost,
		"/v1/packages/billing-assistant/invoke", `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "bad_request", resp.Error.Code)
}

func TestHandleInvalidate(t *testing.T) {
	mux, l := newTestMux(t)

	_, _ = doRequest(t, mux, http.MethodPost, "/v1/packages/billing-assistant/load", "")
	require.Equal(t, 1, l.MemoryCacheSize())

	rec, resp := doRequest(t, mux, http.MethodDelete, "/v1/packages/billing-assistant", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, l.MemoryCacheSize())
}

func TestHandlePreload(t *testing.T) {
	mux, l := newTestMux(t)

	rec, resp := doRequest(t, mux, http.MethodPost, "/v1/packages/preload",
		`{"keys":["billing-assistant","no-such-key"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["succeeded"])
	assert.EqualValues(t, 1, data["failed"])
	assert.Equal(t, 1, l.MemoryCacheSize())
}

func TestHandleClearCacheAndKeys(t *testing.T) {
	mux, _ := newTestMux(t)

	_, _ = doRequest(t, mux, http.MethodPost, "/v1/packages/billing-assistant/load", "")

	rec, resp := doRequest(t, mux, http.MethodGet, "/v1/cache/keys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["size"])

	rec, resp = doRequest(t, mux, http.MethodDelete, "/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	_, resp = doRequest(t, mux, http.MethodGet, "/v1/cache/keys", "")
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, data["size"])
}

func TestHandleStats(t *testing.T) {
	mux, _ := newTestMux(t)

	_, _ = doRequest(t, mux, http.MethodPost, "/v1/packages/billing-assistant/load", "")
	_, _ = doRequest(t, mux, http.MethodPost, "/v1/packages/billing-assistant/load", "")

	rec, resp := doRequest(t, mux, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["memory_cache_hits"])
	assert.EqualValues(t, 1, data["remote_loads"])

	rec, _ = doRequest(t, mux, http.MethodDelete, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, resp = doRequest(t, mux, http.MethodGet, "/v1/stats", "")
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, data["memory_cache_hits"])
}
