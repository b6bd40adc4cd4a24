package cache

import (
	"bytes"
	"os"
	"testing"

	"pgregory.net/rapid"
)

// Writing an entry and reading it back always yields the same bytes and
// checksum, for arbitrary keys and payloads.
func TestProperty_DiskCacheRoundTrip(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringN(1, 64, -1).Draw(rt, "key")
		data := rapid.SliceOfN(rapid.Byte(), 0, 4096).Draw(rt, "data")
		checksum := rapid.StringMatching(`[a-f0-9]{8,64}`).Draw(rt, "checksum")

		if err := c.Write(key, data, checksum); err != nil {
			rt.Fatalf("write: %v", err)
		}

		entry, err := c.Entry(key)
		if err != nil {
			rt.Fatalf("entry: %v", err)
		}
		if entry.Checksum != checksum {
			rt.Fatalf("checksum mismatch: got %q want %q", entry.Checksum, checksum)
		}

		path, err := c.Path(key)
		if err != nil {
			rt.Fatalf("path: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		if !bytes.Equal(got, data) {
			rt.Fatalf("data mismatch: got %d bytes want %d", len(got), len(data))
		}
	})
}

// Distinct keys never collide on disk.
func TestProperty_DiskCacheKeyIsolation(t *testing.T) {
	c, err := NewDiskCache(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		keyA := rapid.StringN(1, 64, -1).Draw(rt, "keyA")
		keyB := rapid.StringN(1, 64, -1).Draw(rt, "keyB")
		if keyA == keyB {
			return
		}

		if err := c.Write(keyA, []byte("payload-a"), "sum-a"); err != nil {
			rt.Fatalf("write a: %v", err)
		}
		if err := c.Delete(keyB); err != nil {
			rt.Fatalf("delete b: %v", err)
		}

		if _, err := c.Entry(keyA); err != nil {
			rt.Fatalf("entry for %q lost after deleting %q: %v", keyA, keyB, err)
		}
	})
}
