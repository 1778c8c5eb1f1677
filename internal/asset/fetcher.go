package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// maxRemoteSize caps remote floor plans at the upload limit.
const maxRemoteSize = maxUploadSize

var ErrUnsupportedSource = errors.New("unsupported svg source")

// Fetcher resolves floor svgSource references: "/assets/<file>" from the
// local asset directory and http(s) URLs over the network.
type Fetcher struct {
	dir    string
	client *http.Client
}

func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		dir:    dir,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "/assets/"):
		return f.openLocal(strings.TrimPrefix(source, "/assets/"))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return f.fetchRemote(ctx, source)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
}

func (f *Fetcher) openLocal(name string) (io.ReadCloser, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid asset path %q", ErrUnsupportedSource, name)
	}
	file, err := os.Open(filepath.Join(f.dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return file, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	return limitedBody{Reader: io.LimitReader(resp.Body, maxRemoteSize), Closer: resp.Body}, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}
