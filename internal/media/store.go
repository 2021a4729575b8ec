// AngelaMos | 2026
// store.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
)

// DiskStore owns uploaded objects under a single root directory. Object
// keys are slash separated paths relative to that root.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: media root is empty", core.ErrConfiguration)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: media root: %w", core.ErrConfiguration, err)
	}

	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

// Release removes the object stored under key. An object that is already
// gone counts as released.
func (s *DiskStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release %q: %w", key, err)
	}

	return nil
}

func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, 0) {
		return "", core.NewInputError("invalid media key %q", key)
	}

	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || !filepath.IsLocal(cleaned) {
		return "", core.NewInputError("media key %q escapes the store root", key)
	}

	return filepath.Join(s.root, cleaned), nil
}
