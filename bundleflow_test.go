package bundleflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/bundleflow"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/testutil"
	"github.com/BaSui01/bundleflow/testutil/mocks"
)

func TestNew_DefaultStack(t *testing.T) {
	resolver := registry.NewStaticResolver(registry.PackageMetadata{
		Key:            "onboarding",
		BundleLocation: "store://bundles/onboarding-v1",
	})
	fetcher := mocks.NewMapFetcher()
	fetcher.Put("store://bundles/onboarding-v1", []byte("key: onboarding\nversion: v1\n"))

	l, err := bundleflow.New(resolver,
		bundleflow.WithCacheDir(t.TempDir()),
		bundleflow.WithFetcher(fetcher),
	)
	require.NoError(t, err)

	mod, err := l.LoadPackage(testutil.TestContext(t), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "onboarding", mod.Describe().Key)
	assert.Equal(t, 1, l.MemoryCacheSize())
}

func TestNew_NilResolver(t *testing.T) {
	_, err := bundleflow.New(nil, bundleflow.WithCacheDir(t.TempDir()))
	assert.Error(t, err)
}
