package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	req := uploadRequest(t, "file", filename, content)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	fhs := req.MultipartForm.File["file"]
	require.Len(t, fhs, 1)
	return fhs[0]
}

func TestMediaStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewMediaStore(root)

	content := []byte("%PDF-1.4 pattern")
	fh := formFileHeader(t, "rose-garden.PDF", content)

	rel, err := store.Save(fh, "schemes/files")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "schemes/files/"), rel)
	assert.True(t, strings.HasSuffix(rel, ".pdf"), rel)
	// Paths are sharded by upload date.
	assert.Contains(t, rel, time.Now().UTC().Format("2006/01/02"))

	saved, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestMediaStoreSaveUniqueNames(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	fh := formFileHeader(t, "chart.xsd", []byte("a"))
	first, err := store.Save(fh, "schemes/files")
	require.NoError(t, err)
	second, err := store.Save(fh, "schemes/files")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMediaStoreSaveStripsHostileExtension(t *testing.T) {
	store := NewMediaStore(t.TempDir())

	fh := formFileHeader(t, "weird.name./../etc", []byte("x"))
	rel, err := store.Save(fh, "schemes/gallery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "schemes/gallery/"), rel)
	assert.NotContains(t, rel, "..")
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".pdf", Ext("Chart.PDF"))
	assert.Equal(t, ".saga", Ext("winter.saga"))
	assert.Equal(t, "", Ext("noext"))
}
