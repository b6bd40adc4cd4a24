package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginMaterializer(t *testing.T) {
	t.Run("creates lib dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "lib")
		m, err := NewPluginMaterializer(dir, nil)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.DirExists(t, dir)
	})

	t.Run("empty dir rejected", func(t *testing.T) {
		_, err := NewPluginMaterializer("", nil)
		require.Error(t, err)
	})
}

func TestPluginMaterializer_FromBytes_InvalidBundle(t *testing.T) {
	dir := t.TempDir()
	m, err := NewPluginMaterializer(dir, nil)
	require.NoError(t, err)

	_, err = m.FromBytes(context.Background(), []byte("not a shared object"))
	require.Error(t, err)

	// The transient artifact must be gone even though the load failed.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPluginMaterializer_FromFile_Missing(t *testing.T) {
	m, err := NewPluginMaterializer(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = m.FromFile(context.Background(), filepath.Join(t.TempDir(), "nope.so"))
	require.Error(t, err)
}

func TestPluginMaterializer_FromFile_CancelledContext(t *testing.T) {
	m, err := NewPluginMaterializer(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.FromFile(ctx, "irrelevant.so")
	require.ErrorIs(t, err, context.Canceled)
}
