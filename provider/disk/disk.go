// Package disk stores artifacts as one file per key under a root directory:
//
//	<root>/<key><ext>
//
// This is the durable tier of the artifact cache. Files are written
// atomically and are directly viewable (raw image bytes, no framing).
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/unkn0wn-root/gridiron/internal/util"
	pr "github.com/unkn0wn-root/gridiron/provider"
)

const DefaultExt = ".png"

var ErrEmptyRoot = errors.New("disk provider: root is required")

type Disk struct {
	root string
	ext  string
	perm os.FileMode
}

var (
	_ pr.Provider = (*Disk)(nil)
	_ pr.Exporter = (*Disk)(nil)
)

type Config struct {
	Root string
	Ext  string      // "" => .png
	Perm os.FileMode // 0 => 0644
}

// New creates the root directory if needed.
func New(cfg Config) (*Disk, error) {
	if cfg.Root == "" {
		return nil, ErrEmptyRoot
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("disk provider: create root: %w", err)
	}
	perm := cfg.Perm
	if perm == 0 {
		perm = 0o644
	}
	return &Disk{
		root: cfg.Root,
		ext:  util.NormalizeExt(cfg.Ext, DefaultExt),
		perm: perm,
	}, nil
}

func (d *Disk) Root() string { return d.root }

// Path returns the file an entry for key lives at.
func (d *Disk) Path(key string) string {
	return filepath.Join(d.root, util.FileName(key, d.ext))
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(d.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(b) == 0 {
		// leftover from an interrupted non-atomic writer; treat as a miss
		return nil, false, nil
	}
	return b, true, nil
}

func (d *Disk) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	if err := util.WriteFileAtomic(d.Path(key), value, d.perm); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Disk) Del(_ context.Context, key string) error {
	err := os.Remove(d.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) Export(_ context.Context, key, dst string) (bool, error) {
	src := d.Path(key)
	st, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}
	if err := util.LinkOrCopy(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Disk) Close(context.Context) error { return nil }
