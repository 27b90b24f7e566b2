// Package photos manages product photo attachments: validated uploads into a
// local directory and best-effort cleanup of replaced or removed files.
package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avolkov/vitrine/pkg/models"
)

// ProductStore is the slice of the product repository the manager needs.
type ProductStore interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
	SetPhotoURL(ctx context.Context, id int64, photoURL *string) (*models.Product, error)
}

// MaxUploadBytes is the hard ceiling on a single photo upload.
const MaxUploadBytes = 10 << 20 // 10 MiB

// URLPrefix is the static path prefix photos are served under. It is outside
// the API namespace.
const URLPrefix = "/uploads/"

var (
	// ErrTooLarge is returned when the declared upload size exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("photo exceeds maximum size")

	// ErrNotImage is returned when the declared content type is not image/*.
	ErrNotImage = errors.New("only image uploads are allowed")
)

// Manager stores photo files and keeps the product's photo_url column in sync.
type Manager struct {
	dir      string
	products ProductStore
	logger   *zap.Logger
}

// NewManager creates a Manager writing files into dir, creating it if needed.
func NewManager(dir string, products ProductStore, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %q: %w", dir, err)
	}
	return &Manager{dir: dir, products: products, logger: logger}, nil
}

// Dir returns the directory photo files are stored in.
func (m *Manager) Dir() string {
	return m.dir
}

// Attach validates and stores an uploaded photo for the product, then points
// the product at it. Every attach writes a freshly generated filename, so a
// client never sees a stale body behind a reused URL. The previously attached
// file, if any, is removed best-effort once the new association is persisted.
func (m *Manager) Attach(ctx context.Context, id int64, r io.Reader, filename, mimeType string, size int64) (*models.Product, error) {
	if size > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: got %q", ErrNotImage, mimeType)
	}

	prev, err := m.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	dst := filepath.Join(m.dir, name)

	if err := m.writeFile(dst, r); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	url := URLPrefix + name
	updated, err := m.products.SetPhotoURL(ctx, id, &url)
	if err != nil {
		// The product row is gone or unreachable; don't leave the file behind.
		m.removeFile(url)
		return nil, err
	}

	if prev.PhotoURL != nil {
		m.removeFile(*prev.PhotoURL)
	}

	return updated, nil
}

// Detach clears the product's photo reference. The stored file is deleted
// best-effort: a failed unlink is logged and swallowed so the reference never
// stays pointed at a file we intended to drop. Calling Detach on a product
// without a photo is a no-op that returns the product unchanged.
func (m *Manager) Detach(ctx context.Context, id int64) (*models.Product, error) {
	p, err := m.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PhotoURL == nil {
		return p, nil
	}

	m.removeFile(*p.PhotoURL)
	return m.products.SetPhotoURL(ctx, id, nil)
}

// Cleanup removes the file behind a product's photo, if any. Used when the
// product itself is deleted.
func (m *Manager) Cleanup(p *models.Product) {
	if p == nil || p.PhotoURL == nil {
		return
	}
	m.removeFile(*p.PhotoURL)
}

// writeFile copies the upload to dst, guarding against bodies that exceed the
// declared size.
func (m *Manager) writeFile(dst string, r io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// removeFile unlinks the stored file referenced by a photo URL, ignoring
// URLs outside the managed prefix (e.g. external links).
func (m *Manager) removeFile(photoURL string) {
	if !strings.HasPrefix(photoURL, URLPrefix) {
		return
	}
	name := path.Base(photoURL)
	if err := os.Remove(filepath.Join(m.dir, name)); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove photo file",
			zap.String("file", name),
			zap.Error(err),
		)
	}
}
