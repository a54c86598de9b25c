package ports

import (
	"context"
	"io"
)

// UploadInput describes one file to store.
type UploadInput struct {
	// Prefix is the folder inside the bucket, e.g. "ktp".
	Prefix      string
	FileName    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// FileStorage stores user uploaded files and hands out public URLs.
type FileStorage interface {
	Upload(ctx context.Context, in UploadInput) (publicURL string, err error)
	Delete(ctx context.Context, publicURL string) error
}
