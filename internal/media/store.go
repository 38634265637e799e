// Package media stores uploaded gift and event images on local disk.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sharath018/event-gift-backend/internal/apperr"
)

const (
	KindGifts  = "gifts"
	KindEvents = "events"

	PublicPrefix = "/uploads"
	MaxImageSize = 2 << 20
)

var (
	ErrImageTooLarge    = apperr.New(apperr.ErrValidation, "image_too_large", "Image must be 2 MB or smaller")
	ErrUnsupportedImage = apperr.New(apperr.ErrValidation, "unsupported_image", "Only JPEG, PNG, GIF and WEBP images are allowed")
	ErrEmptyImage       = apperr.New(apperr.ErrValidation, "image_required", "Image is required")
	errOutsideRoot      = errors.New("path escapes upload root")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Store persists images and returns their public path.
type Store interface {
	Save(kind string, r io.Reader) (string, error)
	Delete(publicPath string) error
}

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	for _, kind := range []string{KindGifts, KindEvents} {
		if err := os.MkdirAll(filepath.Join(abs, kind), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

// Save sniffs the content type, enforces the size limit and writes the image
// under kind/ with a random name.
func (s *DiskStore) Save(kind string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", ErrUnsupportedImage
	}

	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path.Join(PublicPrefix, kind, name), nil
}

// Delete removes a previously saved image. Missing files are not an error.
func (s *DiskStore) Delete(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	full, err := s.resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (s *DiskStore) resolve(publicPath string) (string, error) {
	cleaned := path.Clean("/" + publicPath)
	if !strings.HasPrefix(cleaned, PublicPrefix+"/") {
		return "", errOutsideRoot
	}
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, PublicPrefix+"/")))
	within, err := filepath.Rel(s.root, full)
	if err != nil || within == "." || strings.HasPrefix(within, "..") {
		return "", errOutsideRoot
	}
	return full, nil
}

// OpenUpload opens a multipart upload after checking its declared size.
func OpenUpload(fh *multipart.FileHeader) (multipart.File, error) {
	if fh == nil {
		return nil, ErrEmptyImage
	}
	if fh.Size > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return f, nil
}
