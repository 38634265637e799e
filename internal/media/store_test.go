package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestSaveAndDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	public, err := store.Save(KindGifts, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(public, "/uploads/gifts/"))
	assert.Equal(t, ".png", filepath.Ext(public))

	onDisk := filepath.Join(store.Root(), KindGifts, filepath.Base(public))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, store.Delete(public))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(public), "deleting twice is fine")
	assert.NoError(t, store.Delete(""))

	entries, err := os.ReadDir(filepath.Join(store.Root(), KindGifts))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestSaveRejects(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyImage},
		{"text", []byte("hello, this is not an image"), ErrUnsupportedImage},
		{"pdf", []byte("%PDF-1.4\n%âãÏÓ\n"), ErrUnsupportedImage},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize)...), ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(KindEvents, bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	assert.Error(t, store.Delete("/etc/passwd"))
	assert.Error(t, store.Delete("/uploads"))
	_ = store.Delete("/uploads/../secret.txt")

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
