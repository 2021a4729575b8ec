// AngelaMos | 2026
// store_test.go

package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestDiskStore_Release(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Root(), "u1", "photo.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))

	require.NoError(t, s.Release(context.Background(), "u1/photo.jpg"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStore_ReleaseMissingIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Release(context.Background(), "u1/gone.jpg"))
}

func TestDiskStore_RejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t)

	outside := filepath.Join(filepath.Dir(s.Root()), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	for _, key := range []string{"", "../keep.txt", "u1/../../keep.txt", "/etc/passwd"} {
		t.Run(key, func(t *testing.T) {
			err := s.Release(context.Background(), key)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestDiskStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Release(ctx, "u1/a.jpg"), context.Canceled)
}

func TestNewDiskStore_EmptyRoot(t *testing.T) {
	_, err := NewDiskStore("")
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
