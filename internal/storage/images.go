// Package storage manages uploaded post images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// fallbackBaseName is used when the client filename sanitizes to nothing.
const fallbackBaseName = "image"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ImageStore writes post images into a dedicated directory and hands back
// the bare generated filename, which is all the database ever stores.
type ImageStore struct {
	dir string
}

// NewImageStore creates the posts image directory under baseDir if needed.
func NewImageStore(baseDir string) (*ImageStore, error) {
	dir := filepath.Join(baseDir, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir returns the directory images are stored in.
func (s *ImageStore) Dir() string {
	return s.dir
}

// SanitizeBaseName strips the extension from a client-provided filename and
// removes every character outside [A-Za-z0-9_-]. An empty result falls back
// to a fixed name so the generated filename never starts with the separator.
func SanitizeBaseName(originalName string) string {
	base := filepath.Base(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeChars.ReplaceAllString(base, "")
	if base == "" {
		base = fallbackBaseName
	}
	return base
}

// Save writes content under a collision-free name derived from the client
// filename and the given extension, and returns the generated filename.
// The write goes through a temp file and a rename, so a failure mid-write
// never clobbers an existing image.
func (s *ImageStore) Save(originalName, ext string, content []byte) (string, error) {
	name := fmt.Sprintf("%s-%s.%s", SanitizeBaseName(originalName), uuid.NewString(), ext)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("move upload: %w", err)
	}
	return name, nil
}

// Remove deletes a stored image by name. A missing file is not an error, and
// an empty name is a no-op. Names carrying path separators are rejected so a
// corrupted record can never escape the image directory.
func (s *ImageStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether a stored image is present on disk.
func (s *ImageStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
