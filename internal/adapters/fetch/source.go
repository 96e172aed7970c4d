package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
)

// maxFaceBytes bounds the encoded size of a single face.
const maxFaceBytes = 64 << 20

var errHTTPStatus = zerr.New("unexpected HTTP status")

// Source opens the encoded bytes of a face location.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Router dispatches locations to a file or HTTP source by scheme.
type Router struct {
	client *http.Client
}

// NewRouter creates a Router using client for http(s) locations. A nil client
// uses http.DefaultClient.
func NewRouter(client *http.Client) *Router {
	if client == nil {
		client = http.DefaultClient
	}
	return &Router{client: client}
}

// Open opens location.
func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.Contains(location, "://") {
		return openFile(location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedLocation, "malformed URL"), "location", location)
	}

	switch u.Scheme {
	case "file":
		return openFile(u.Path)
	case "http", "https":
		return r.openHTTP(ctx, location)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedLocation, "unsupported scheme"), "scheme", u.Scheme)
	}
}

func openFile(path string) (io.ReadCloser, error) {
	// #nosec G304 -- locations come from the user's configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open face")
	}
	return f, nil
}

func (r *Router) openHTTP(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create request")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to download face")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, zerr.With(zerr.Wrap(errHTTPStatus, "failed to download face"), "status", resp.Status)
	}
	return resp.Body, nil
}
