package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// DiskStore keeps uploads in a local directory served under a public path prefix.
type DiskStore struct {
	root      *os.Root
	dir       string
	publicURL string
}

var _ ports.FileStorage = (*DiskStore)(nil)

// NewDiskStore opens (creating if needed) dir. Uploaded files are reachable at publicURL + "/" + object path.
func NewDiskStore(dir, publicURL string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open upload directory: %w", err)
	}
	return &DiskStore{root: root, dir: dir, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

// Dir is the directory files are written to.
func (s *DiskStore) Dir() string { return s.dir }

// Upload writes the file and returns its public URL.
func (s *DiskStore) Upload(ctx context.Context, in ports.UploadInput) (string, error) {
	if in.Body == nil {
		return "", errors.New("upload body is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath := objectName(in.Prefix, in.FileName)
	if dir := path.Dir(objectPath); dir != "." {
		if err := s.root.Mkdir(dir, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create upload prefix: %w", err)
		}
	}

	f, err := s.root.OpenFile(objectPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, in.Body); err != nil {
		_ = f.Close()
		_ = s.root.Remove(objectPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return s.publicURL + "/" + objectPath, nil
}

// Delete removes a file previously returned by Upload. Missing files are not an error.
func (s *DiskStore) Delete(_ context.Context, publicURL string) error {
	objectPath, ok := strings.CutPrefix(publicURL, s.publicURL+"/")
	if !ok || objectPath == "" {
		return fmt.Errorf("not a local upload: %q", publicURL)
	}
	if err := s.root.Remove(objectPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Close releases the directory handle.
func (s *DiskStore) Close() error { return s.root.Close() }
