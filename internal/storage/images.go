// Package storage keeps issue images on local disk.
package storage

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"civic_reporter/internal/model"
	"civic_reporter/internal/xerrors"

	"github.com/google/uuid"
)

const (
	MaxImages    = 5
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	// URLPrefix is where stored images are served from.
	URLPrefix = "/uploads"
	issueDir  = "issues"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists validated images and returns their public paths.
type ImageStore interface {
	Save(images []model.ImageUpload) ([]string, error)
	Remove(paths []string)
	Open(name string) (string, error)
}

type LocalImageStore struct {
	baseDir string
}

func NewLocalImageStore(baseDir string) *LocalImageStore {
	return &LocalImageStore{baseDir: baseDir}
}

// Validate checks count, size and sniffed content type without touching disk.
func Validate(images []model.ImageUpload) error {
	if len(images) > MaxImages {
		return xerrors.Validation("you can upload a maximum of %d images", MaxImages)
	}
	for _, img := range images {
		if len(img.Data) == 0 {
			return xerrors.Validation("image %q is empty", img.Filename)
		}
		if len(img.Data) > MaxImageSize {
			return xerrors.Validation("image %q exceeds the 5MB limit", img.Filename)
		}
		if _, ok := allowedTypes[sniff(img.Data)]; !ok {
			return xerrors.Validation("image %q is not a jpeg, png, webp or gif", img.Filename)
		}
	}
	return nil
}

// Save writes every image or none of them.
func (s *LocalImageStore) Save(images []model.ImageUpload) ([]string, error) {
	if err := Validate(images); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return []string{}, nil
	}

	dir := filepath.Join(s.baseDir, issueDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		name := uuid.NewString() + allowedTypes[sniff(img.Data)]
		if err := os.WriteFile(filepath.Join(dir, name), img.Data, 0o644); err != nil {
			s.Remove(paths)
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		paths = append(paths, path.Join(URLPrefix, issueDir, name))
	}
	return paths, nil
}

// Remove deletes previously saved images, ignoring ones already gone.
func (s *LocalImageStore) Remove(paths []string) {
	for _, p := range paths {
		if full, err := s.Open(path.Base(p)); err == nil {
			_ = os.Remove(full)
		}
	}
}

// Open maps a stored image name to its file on disk.
func (s *LocalImageStore) Open(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", xerrors.ErrNotFound
	}
	full := filepath.Join(s.baseDir, issueDir, name)
	if _, err := os.Stat(full); err != nil {
		return "", xerrors.ErrNotFound
	}
	return full, nil
}

func sniff(data []byte) string {
	return http.DetectContentType(data)
}
