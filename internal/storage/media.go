// Package storage persists uploaded blobs under the media root and
// hands back the relative paths stored in the database. The HTTP layer
// serves the same root under /media/.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaStore struct {
	root string
}

func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

// Save writes an uploaded file below subdir (e.g. "schemes/files"),
// sharded by upload date the way the media tree has always been laid
// out. The stored name is a fresh UUID with the original extension, so
// concurrent uploads of files with equal names never collide.
func (s *MediaStore) Save(fh *multipart.FileHeader, subdir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	now := time.Now().UTC()
	relDir := path.Join(subdir, now.Format("2006/01/02"))
	absDir := filepath.Join(s.root, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.NewString() + normalizeExt(fh.Filename)
	relPath := path.Join(relDir, name)

	dst, err := os.Create(filepath.Join(absDir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return relPath, nil
}

// Ext returns the normalized extension of an uploaded file name.
func Ext(filename string) string {
	return normalizeExt(filename)
}

func normalizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	// Defend against path tricks in client-supplied names.
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
