package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Bucket names the three stores the system writes to. Product images are
// publicly readable; the two document buckets require an authorized download.
type Bucket string

const (
	BucketProductImages    Bucket = "product-images"
	BucketPartnerDocuments Bucket = "partner-documents"
	BucketCreditDocuments  Bucket = "credit-documents"
)

var (
	ErrObjectNotFound = errors.New("object not found")
)

// Store is a bucket-addressed blob store backed by an afero filesystem.
// Production uses the OS filesystem rooted at the configured storage
// directory; tests use an in-memory filesystem.
type Store struct {
	fs afero.Fs
}

// New creates a Store rooted at dir on the real filesystem.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}, nil
}

// NewWithFs creates a Store over an arbitrary filesystem.
func NewWithFs(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Save writes an object into a bucket and returns its storage path. The
// returned path is what application rows persist; it is not a public URL.
func (s *Store) Save(bucket Bucket, name string, r io.Reader) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.New("invalid object name")
	}

	dir := string(bucket)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	path := filepath.Join(dir, name)
	f, err := s.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create object %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close object %s: %w", path, err)
	}

	return name, nil
}

// Open returns a reader over a stored object.
func (s *Store) Open(bucket Bucket, name string) (io.ReadCloser, error) {
	name = filepath.Base(name)
	path := filepath.Join(string(bucket), name)

	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", path, err)
	}

	return f, nil
}

// PublicURL maps an object in the public images bucket to the URL the API
// serves it under.
func (s *Store) PublicURL(name string) string {
	return "/static/" + string(BucketProductImages) + "/" + filepath.Base(name)
}

// SanitizeName replaces every non-alphanumeric rune with an underscore,
// matching the naming convention for partner document uploads.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Ext returns the final extension of a filename without the dot, or "" when
// the name has none.
func Ext(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimPrefix(ext, ".")
}
