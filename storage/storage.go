// Package storage keeps uploaded files, such as nurse license documents, in named buckets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// LicenseBucket holds nurse license documents
const LicenseBucket = "nurse-licenses"

// MaxUploadSize is the largest accepted object in bytes
const MaxUploadSize = 10 << 20

var (
	// ErrInvalidName is returned for bucket or object names that could escape the store root
	ErrInvalidName = errors.New("invalid object name")
	// ErrUnsupportedType is returned for content types other than PDF, PNG and JPEG
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds MaxUploadSize
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned when an object does not exist
	ErrNotFound = errors.New("object not found")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// allowedTypes maps accepted content types to the extensions they may carry
var allowedTypes = map[string][]string{
	"application/pdf": {".pdf"},
	"image/png":       {".png"},
	"image/jpeg":      {".jpg", ".jpeg"},
}

// Object describes a stored file
type Object struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// FileStore stores objects as files under <root>/<bucket>/<name>
type FileStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFileStore returns a store writing below dir on the local disk
func NewFileStore(dir, publicBaseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return NewFileStoreFs(afero.NewBasePathFs(afero.NewOsFs(), dir), publicBaseURL), nil
}

// NewFileStoreFs returns a store over an arbitrary filesystem, e.g. afero.NewMemMapFs in tests
func NewFileStoreFs(fs afero.Fs, publicBaseURL string) *FileStore {
	return &FileStore{fs: fs, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// LicenseObjectName names a nurse's license file after the uploaded file's extension
func LicenseObjectName(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return userID + "-license"
	}
	return fmt.Sprintf("%s-license.%s", userID, ext)
}

// DetectContentType prefers the declared type and falls back to the file extension
func DetectContentType(declared, filename string) string {
	if ct := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0])); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for ct, exts := range allowedTypes {
		for _, e := range exts {
			if e == ext {
				return ct
			}
		}
	}
	return "application/octet-stream"
}

func objectPath(bucket, name string) (string, error) {
	if !validName.MatchString(bucket) || !validName.MatchString(name) || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	return path.Join("/", bucket, name), nil
}

// Upload validates and writes an object, replacing any previous object with the same name
func (s *FileStore) Upload(ctx context.Context, bucket, name, contentType string, r io.Reader) (*Object, error) {
	p, err := objectPath(bucket, name)
	if err != nil {
		return nil, err
	}
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := path.Dir(p)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, io.LimitReader(r, MaxUploadSize+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size > MaxUploadSize {
		err = ErrTooLarge
	}
	if err != nil {
		s.fs.Remove(tmpName)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to write object: %w", err)
	}

	if err := s.fs.Rename(tmpName, p); err != nil {
		s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &Object{
		Bucket:      bucket,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		URL:         s.PublicURL(bucket, name),
	}, nil
}

// Open returns a reader for a stored object. The caller closes it.
func (s *FileStore) Open(ctx context.Context, bucket, name string) (afero.File, error) {
	p, err := objectPath(bucket, name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// PublicURL is where the files handler serves the object
func (s *FileStore) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/files/%s/%s", s.baseURL, bucket, name)
}
