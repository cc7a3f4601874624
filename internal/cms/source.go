package cms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ErrNotFound is returned when a document does not exist in any source.
var ErrNotFound = errors.New("cms: not found")

const maxDocumentBytes = 4 << 20

// Source fetches raw content files by name, e.g. "brands.json".
type Source interface {
	Name() string
	Fetch(ctx context.Context, file string) ([]byte, error)
}

// DirSource reads content files from a local directory.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "content"
	}
	return &DirSource{Dir: dir}
}

func (s *DirSource) Name() string { return "dir" }

func (s *DirSource) Fetch(_ context.Context, file string) ([]byte, error) {
	name, err := cleanName(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// HTTPSource reads content files below a remote base URL.
type HTTPSource struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSource constructs an HTTPSource. A nil client gets a 5 second timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    client,
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	name, err := cleanName(file)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cms: remote status %d for %s", resp.StatusCode, name)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

// GCSSource reads content files from a Cloud Storage bucket.
type GCSSource struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSSource reads objects below prefix in bucket.
func NewGCSSource(client *storage.Client, bucket, prefix string) *GCSSource {
	return &GCSSource{
		bucket: client.Bucket(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}
}

func (s *GCSSource) Name() string { return "gcs" }

func (s *GCSSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	name, err := cleanName(file)
	if err != nil {
		return nil, err
	}
	if s.prefix != "" {
		name = path.Join(s.prefix, name)
	}
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cms: open gs object %s: %w", name, err)
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, maxDocumentBytes))
}

func cleanName(file string) (string, error) {
	name := strings.Trim(strings.TrimSpace(file), "/")
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("cms: invalid document name %q", file)
	}
	return name, nil
}
