package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// DefaultMaxUploadBytes caps a single signup upload.
const DefaultMaxUploadBytes int64 = 5 << 20

// Upload slots accepted on the signup form.
const (
	UploadProfilePhoto = "profile_photo"
	UploadKTPScan      = "ktp_scan"
)

var uploadPrefixes = map[string]string{
	UploadProfilePhoto: "avatars",
	UploadKTPScan:      "ktp",
}

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// SignupFile is one file picked on the signup form.
type SignupFile struct {
	Slot        string
	FileName    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// SignupUploaderOptions groups dependencies for SignupUploader.
type SignupUploaderOptions struct {
	Storage  ports.FileStorage
	MaxBytes int64
	Logger   *slog.Logger
}

// SignupUploader stores signup documents before the account exists and removes them
// again when the signup does not go through.
type SignupUploader struct {
	storage  ports.FileStorage
	maxBytes int64
	logger   *slog.Logger
}

// NewSignupUploader constructs a SignupUploader.
func NewSignupUploader(opts SignupUploaderOptions) (*SignupUploader, error) {
	if opts.Storage == nil {
		return nil, errors.New("file storage is required")
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SignupUploader{storage: opts.Storage, maxBytes: maxBytes, logger: logger.With("component", "signup_uploads")}, nil
}

// StagedUploads are files already stored for a pending signup, keyed by slot.
type StagedUploads struct {
	URLs map[string]string

	u    *SignupUploader
	once sync.Once
}

// Apply copies the staged URLs into the matching signup fields.
func (s *StagedUploads) Apply(d *domainauth.SignupData) {
	if s == nil || d == nil {
		return
	}
	if u := s.URLs[UploadProfilePhoto]; u != "" {
		d.ProfilePhotoURL = u
	}
	if u := s.URLs[UploadKTPScan]; u != "" {
		switch {
		case d.Role == domainauth.RoleTechnician && d.Technician != nil:
			d.Technician.KTPScan = u
		case d.Role == domainauth.RoleWorkshop && d.Workshop != nil:
			d.Workshop.OwnerKTPScan = u
		}
	}
}

// Discard deletes every staged file. Deletion failures are logged, not returned.
func (s *StagedUploads) Discard(ctx context.Context) {
	if s == nil || s.u == nil {
		return
	}
	s.once.Do(func() { s.u.remove(ctx, s.URLs) })
}

// Stage validates and uploads files. If any upload fails the ones already stored are removed.
func (u *SignupUploader) Stage(ctx context.Context, files []SignupFile) (*StagedUploads, error) {
	for _, f := range files {
		if err := u.check(f); err != nil {
			return nil, err
		}
	}

	urls := make(map[string]string, len(files))
	for _, f := range files {
		url, err := u.storage.Upload(ctx, ports.UploadInput{
			Prefix:      uploadPrefixes[f.Slot],
			FileName:    path.Base(f.FileName),
			ContentType: f.ContentType,
			Body:        f.Body,
			Size:        f.Size,
		})
		if err != nil {
			u.remove(ctx, urls)
			return nil, fmt.Errorf("upload %s: %w", f.Slot, err)
		}
		urls[f.Slot] = url
	}
	return &StagedUploads{URLs: urls, u: u}, nil
}

func (u *SignupUploader) check(f SignupFile) error {
	if _, ok := uploadPrefixes[f.Slot]; !ok {
		return apperrors.ValidationField(f.Slot, "Berkas tidak dikenal")
	}
	if f.Size > u.maxBytes {
		return apperrors.ValidationField(f.Slot, fmt.Sprintf("Ukuran berkas maksimal %d MB", u.maxBytes>>20))
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if ct, _, _ = strings.Cut(ct, ";"); !allowedUploadTypes[ct] {
		return apperrors.ValidationField(f.Slot, "Format berkas harus JPG, PNG, WEBP, atau PDF")
	}
	return nil
}

func (u *SignupUploader) remove(ctx context.Context, urls map[string]string) {
	for slot, url := range urls {
		if err := u.storage.Delete(ctx, url); err != nil {
			u.logger.WarnContext(ctx, "failed to remove staged upload", "slot", slot, "url", url, "error", err)
		}
	}
}
