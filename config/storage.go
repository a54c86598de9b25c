package config

import (
	"fmt"
	"strings"
)

// StorageDriver selects where signup uploads are kept.
type StorageDriver string

const (
	// StorageDriverObject uploads to the storage REST API next to the identity backend.
	StorageDriverObject StorageDriver = "object"
	// StorageDriverDisk writes files under a local directory served by the app.
	StorageDriverDisk StorageDriver = "disk"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageDriver.
func (d *StorageDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "object", "disk":
		*d = StorageDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageDriver: %q (valid options: object, disk)", v)
	}
}

// StorageConfig controls signup upload storage.
type StorageConfig struct {
	Driver StorageDriver `env:"DRIVER" envDefault:"object"`

	// URL is the storage API base URL; it defaults to the identity URL's origin.
	URL        string `env:"URL"`
	Bucket     string `env:"BUCKET"      envDefault:"profile-pictures"`
	ServiceKey string `env:"SERVICE_KEY"`

	// Dir is where the disk driver writes files.
	Dir string `env:"DIR" envDefault:"./data/uploads"`
	// PublicPath is the URL path the disk driver's files are served under.
	PublicPath string `env:"PUBLIC_PATH" envDefault:"/uploads/"`
	// PublicURL is filled by Sanitize from the HTTP base URL and PublicPath.
	PublicURL string `env:"-"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize(baseURL string) {
	s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")
	s.Bucket = strings.TrimSpace(s.Bucket)
	if s.Bucket == "" {
		s.Bucket = "profile-pictures"
	}
	s.PublicPath = "/" + strings.Trim(strings.TrimSpace(s.PublicPath), "/") + "/"
	if s.PublicPath == "//" {
		s.PublicPath = "/uploads/"
	}
	s.PublicURL = strings.TrimRight(baseURL, "/") + s.PublicPath
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = 5 << 20
	}
}
