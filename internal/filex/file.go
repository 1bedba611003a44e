// Package filex contains filesystem helpers used at start-up.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsInMemoryDSN reports whether dsn names an SQLite database that has no
// backing file.
func IsInMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// EnsureDBDir creates the directory holding the database file dsn and
// returns dsn with a relative path resolved against the working directory.
// In-memory and URI-style DSNs are returned unchanged.
func EnsureDBDir(dsn string) (string, error) {
	if IsInMemoryDSN(dsn) || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}

	path := dsn
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return path, nil
}
