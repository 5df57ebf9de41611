package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const maxArtifactSize = 64 << 20

// Source fetches the two catalog artifacts.
type Source interface {
	FetchCount(ctx context.Context) (string, error)
	FetchData(ctx context.Context) (string, error)
}

// HTTPSource fetches catalog artifacts over HTTP. Requests are not retried.
type HTTPSource struct {
	httpClient *http.Client
	countURL   string
	dataURL    string
	logFunc    func(format string, args ...interface{})
}

// NewHTTPSource creates a source for the given count and data URLs.
func NewHTTPSource(countURL, dataURL string) *HTTPSource {
	return &HTTPSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		countURL:   countURL,
		dataURL:    dataURL,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (s *HTTPSource) SetHTTPClient(c *http.Client) {
	s.httpClient = c
}

// SetLogFunc enables request logging.
func (s *HTTPSource) SetLogFunc(logFunc func(format string, args ...interface{})) {
	s.logFunc = logFunc
}

func (s *HTTPSource) log(format string, args ...interface{}) {
	if s.logFunc != nil {
		s.logFunc(format, args...)
	}
}

// FetchCount fetches the count artifact.
func (s *HTTPSource) FetchCount(ctx context.Context) (string, error) {
	return s.get(ctx, s.countURL)
}

// FetchData fetches the catalog text.
func (s *HTTPSource) FetchData(ctx context.Context) (string, error) {
	return s.get(ctx, s.dataURL)
}

func (s *HTTPSource) get(ctx context.Context, rawURL string) (string, error) {
	s.log("[catalog] GET %s", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	s.log("[catalog] response: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// FileSource reads catalog artifacts from local files.
type FileSource struct {
	countPath string
	dataPath  string
}

// NewFileSource creates a source for local count and data files.
func NewFileSource(countPath, dataPath string) *FileSource {
	return &FileSource{countPath: countPath, dataPath: dataPath}
}

// FetchCount reads the count file.
func (s *FileSource) FetchCount(ctx context.Context) (string, error) {
	return readFile(ctx, s.countPath)
}

// FetchData reads the catalog file.
func (s *FileSource) FetchData(ctx context.Context) (string, error) {
	return readFile(ctx, s.dataPath)
}

func readFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// NewSource picks a source implementation from the locations' scheme.
// http(s) URLs use HTTPSource; file:// URLs and bare paths use FileSource.
func NewSource(countLocation, dataLocation string) (Source, error) {
	if countLocation == "" || dataLocation == "" {
		return nil, fmt.Errorf("catalog count and data locations are required")
	}
	countRemote, err := isRemote(countLocation)
	if err != nil {
		return nil, err
	}
	dataRemote, err := isRemote(dataLocation)
	if err != nil {
		return nil, err
	}
	if countRemote != dataRemote {
		return nil, fmt.Errorf("catalog count and data locations must both be remote or both be local")
	}
	if countRemote {
		return NewHTTPSource(countLocation, dataLocation), nil
	}
	return NewFileSource(localPath(countLocation), localPath(dataLocation)), nil
}

func isRemote(location string) (bool, error) {
	if !strings.Contains(location, "://") {
		return false, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return false, fmt.Errorf("invalid catalog location %q: %w", location, err)
	}
	switch u.Scheme {
	case "http", "https":
		return true, nil
	case "file":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported catalog scheme %q", u.Scheme)
	}
}

func localPath(location string) string {
	if strings.HasPrefix(location, "file://") {
		if u, err := url.Parse(location); err == nil {
			return u.Path
		}
	}
	return location
}
