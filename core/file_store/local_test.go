package file_store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	fs, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, StorageTypeLocal, fs.Type())

	ctx := context.Background()
	content := []byte("Contenido original del documento.")

	location, err := fs.SaveText(ctx, "doc-1", "informe.txt", content)
	require.NoError(t, err)
	assert.Contains(t, location, filepath.Join("doc-1", "informe.txt"))

	read, err := fs.ReadText(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, content, read)

	require.NoError(t, fs.Delete(ctx, location))
	_, err = os.Stat(location)
	assert.True(t, os.IsNotExist(err))

	// 删除不存在的文件不报错
	assert.NoError(t, fs.Delete(ctx, location))
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	fs, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = fs.ReadText(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.IsCode(err, errors.ErrFileStoreFailed))
}

func TestNewLocalStorage_EmptyBaseDir(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"informe.txt":           "informe.txt",
		"../../../etc/passwd":   "passwd",
		"  spaced.txt ":         "spaced.txt",
		"":                      "document.txt",
		"dir/sub/contenido.txt": "contenido.txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFileName(in), "input=%q", in)
	}
}
