package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiskCache(t *testing.T) *DiskCache {
	t.Helper()
	c, err := NewDiskCache(t.TempDir(), nil)
	require.NoError(t, err)
	return c
}

func TestNewDiskCache(t *testing.T) {
	t.Run("creates root dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundles")
		c, err := NewDiskCache(dir, nil)
		require.NoError(t, err)
		assert.DirExists(t, c.Root())
	})

	t.Run("empty dir rejected", func(t *testing.T) {
		_, err := NewDiskCache("", nil)
		require.Error(t, err)
	})
}

func TestDiskCache_WriteAndRead(t *testing.T) {
	c := newTestDiskCache(t)

	_, err := c.Path("customer-support")
	assert.True(t, IsCacheMiss(err))
	_, err = c.Entry("customer-support")
	assert.True(t, IsCacheMiss(err))

	data := []byte("bundle bytes")
	require.NoError(t, c.Write("customer-support", data, "abc123"))

	path, err := c.Path("customer-support")
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entry, err := c.Entry("customer-support")
	require.NoError(t, err)
	assert.Equal(t, "customer-support", entry.Key)
	assert.Equal(t, "abc123", entry.Checksum)
	assert.False(t, entry.WrittenAt.IsZero())
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Write("k", []byte("data"), "sum"))

	reopened, err := NewDiskCache(dir, nil)
	require.NoError(t, err)
	entry, err := reopened.Entry("k")
	require.NoError(t, err)
	assert.Equal(t, "sum", entry.Checksum)
}

func TestDiskCache_Overwrite(t *testing.T) {
	c := newTestDiskCache(t)
	require.NoError(t, c.Write("k", []byte("v1"), "sum1"))
	require.NoError(t, c.Write("k", []byte("v2"), "sum2"))

	entry, err := c.Entry("k")
	require.NoError(t, err)
	assert.Equal(t, "sum2", entry.Checksum)

	path, err := c.Path("k")
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestDiskCache_Delete(t *testing.T) {
	c := newTestDiskCache(t)
	require.NoError(t, c.Write("k", []byte("data"), "sum"))
	require.NoError(t, c.Delete("k"))

	_, err := c.Path("k")
	assert.True(t, IsCacheMiss(err))

	// idempotent
	require.NoError(t, c.Delete("k"))
}

func TestDiskCache_Clear(t *testing.T) {
	c := newTestDiskCache(t)
	require.NoError(t, c.Write("a", []byte("1"), "s1"))
	require.NoError(t, c.Write("b", []byte("2"), "s2"))
	require.NoError(t, c.Clear())

	_, err := c.Entry("a")
	assert.True(t, IsCacheMiss(err))
	_, err = c.Entry("b")
	assert.True(t, IsCacheMiss(err))
	assert.DirExists(t, c.Root())
}

func TestDiskCache_NoTempLeftovers(t *testing.T) {
	c := newTestDiskCache(t)
	require.NoError(t, c.Write("k", []byte("data"), "sum"))

	entries, err := os.ReadDir(c.Root())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestDiskCache_PathSafeKeys(t *testing.T) {
	c := newTestDiskCache(t)
	key := "../weird/key with spaces/../" // must not escape the root
	require.NoError(t, c.Write(key, []byte("data"), "sum"))

	path, err := c.Path(key)
	require.NoError(t, err)
	assert.Equal(t, c.Root(), filepath.Dir(path))
}
