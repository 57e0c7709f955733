package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName     = "storefront"
	cacheDBName = "edge-cache.db"
)

// Dir is the per-user directory that holds the edge's on-disk state.
func Dir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", appName, err)
	}
	return dir, nil
}

// CacheDB resolves the SQLite cache path. An explicit path wins; otherwise
// the default file inside Dir is used and the directory is created.
func CacheDB(explicit string) (string, error) {
	if explicit != "" {
		if err := os.MkdirAll(filepath.Dir(explicit), 0o700); err != nil {
			return "", fmt.Errorf("failed to create cache directory: %w", err)
		}
		return explicit, nil
	}
	dir, err := EnsureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheDBName), nil
}
