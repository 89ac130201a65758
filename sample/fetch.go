package sample

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotFound is returned by fetchers when the asset does not exist.
var ErrNotFound = errors.New("sample asset not found")

// Fetcher retrieves the raw bytes of an asset.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// HTTPFetcher downloads assets relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (h *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(h.BaseURL, name)
	if err != nil {
		return nil, fmt.Errorf("bad asset url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// DirFetcher reads assets from a file system, typically os.DirFS(dir).
type DirFetcher struct {
	FS fs.FS
}

func (d DirFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(d.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b, err
}

// NewFetcher picks an HTTPFetcher for http(s) locations and a DirFetcher
// over fsys otherwise.
func NewFetcher(location string, fsys fs.FS) Fetcher {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPFetcher{BaseURL: location}
	}
	return DirFetcher{FS: fsys}
}
