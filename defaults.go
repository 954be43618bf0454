package gridiron

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultSeed is applied to every cell unless Options.Seed is set.
	// One seed for the whole grid keeps identical prompts cache-hits across runs.
	DefaultSeed int64 = 42

	DefaultConcurrency = 4
	DefaultExt         = ".png"
	imagesDir          = "images"
)

// DefaultCacheDir returns <user cache dir>/gridiron, falling back to
// <tmp>/gridiron when the platform has no user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "gridiron")
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func sprintLabel[T any](v T) string { return fmt.Sprint(v) }
