package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDBExplicit(t *testing.T) {
	t.Parallel()

	want := filepath.Join(t.TempDir(), "nested", "cache.db")
	got, err := CacheDB(want)
	if err != nil {
		t.Fatalf("CacheDB() error = %v", err)
	}
	if got != want {
		t.Errorf("CacheDB() = %q, want %q", got, want)
	}
	if info, err := os.Stat(filepath.Dir(want)); err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestCacheDBDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	got, err := CacheDB("")
	if err != nil {
		t.Fatalf("CacheDB() error = %v", err)
	}
	if filepath.Base(got) != cacheDBName {
		t.Errorf("CacheDB() = %q, want file %q", got, cacheDBName)
	}
	if filepath.Base(filepath.Dir(got)) != appName {
		t.Errorf("CacheDB() = %q, want inside %q directory", got, appName)
	}
}
