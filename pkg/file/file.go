package file

import (
	"context"
	"path"
	"strings"
)

// Storage is the media storage a rename runs against. Paths are relative to
// the storage root (the upload directory or the bucket) and use forward slashes.
type Storage interface {
	// Rename moves oldPath to newPath. It fails with ErrFileNotFound when the
	// source is missing and with ErrFileExists when the target is taken.
	Rename(ctx context.Context, oldPath, newPath string) error
	// Exists checks if a file exists.
	Exists(ctx context.Context, path string) bool
	// URL returns the public URL for a file.
	URL(path string) string
}

// cleanKey normalizes a relative storage path and rejects traversal.
func cleanKey(p string) (string, bool) {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return path.Clean(p), true
}
