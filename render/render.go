// Package render turns a finished grid into files under the run's output
// directory: a browsable HTML page and a machine-readable manifest.
package render

import (
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/gridiron"
)

var (
	_ gridiron.Renderer = (*HTML)(nil)
	_ gridiron.Renderer = (*Manifest)(nil)
)

// relPath returns p relative to root in slash form, for use in links and
// manifests. Paths outside root are returned as-is.
func relPath(root, p string) string {
	if p == "" {
		return ""
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
