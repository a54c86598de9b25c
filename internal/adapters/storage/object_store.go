package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// ObjectStoreConfig configures ObjectStore.
type ObjectStoreConfig struct {
	// URL is the project root, e.g. https://<project>.supabase.co.
	URL        string
	Bucket     string
	ServiceKey string
	HTTPClient *http.Client // Optional, defaults to a 60s client
}

// ObjectStore uploads to a public bucket of a Supabase-style storage API.
type ObjectStore struct {
	base   string
	bucket string
	key    string
	http   *http.Client
}

var _ ports.FileStorage = (*ObjectStore)(nil)

// NewObjectStore creates an ObjectStore.
func NewObjectStore(cfg ObjectStoreConfig) (*ObjectStore, error) {
	if cfg.URL == "" || cfg.Bucket == "" || cfg.ServiceKey == "" {
		return nil, errors.New("storage URL, bucket and service key are required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse storage URL: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	// Every call authenticates with the service key as a static bearer token.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ServiceKey, TokenType: "Bearer"}))
	authed.Timeout = hc.Timeout

	return &ObjectStore{
		base:   strings.TrimSuffix(cfg.URL, "/") + "/storage/v1",
		bucket: cfg.Bucket,
		key:    cfg.ServiceKey,
		http:   authed,
	}, nil
}

// PublicURL is where an object in the bucket can be read without credentials.
func (s *ObjectStore) PublicURL(objectPath string) string {
	return s.base + "/object/public/" + s.bucket + "/" + objectPath
}

// Upload stores the file under a fresh object name and returns its public URL.
func (s *ObjectStore) Upload(ctx context.Context, in ports.UploadInput) (string, error) {
	if in.Body == nil {
		return "", errors.New("upload body is required")
	}
	objectPath := objectName(in.Prefix, in.FileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/object/"+s.bucket+"/"+objectPath, in.Body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if in.Size > 0 {
		req.ContentLength = in.Size
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Content-Type", in.ContentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	if err := s.send(req); err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return s.PublicURL(objectPath), nil
}

// Delete removes the object behind a URL returned by Upload. URLs from elsewhere are rejected.
func (s *ObjectStore) Delete(ctx context.Context, publicURL string) error {
	prefix := s.PublicURL("")
	objectPath, ok := strings.CutPrefix(publicURL, prefix)
	if !ok || objectPath == "" {
		return fmt.Errorf("not an object in bucket %s: %q", s.bucket, publicURL)
	}
	body, err := json.Marshal(map[string][]string{"prefixes": {objectPath}})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.base+"/object/"+s.bucket, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Content-Type", "application/json")

	if err := s.send(req); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *ObjectStore) send(req *http.Request) error {
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("storage responded %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
