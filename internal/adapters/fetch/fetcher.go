// Package fetch fetches and decodes cubemap faces from files and HTTP.
package fetch

import (
	"context"
	"image"
	"io"
	"net/http"
	"sync"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Fetcher implements ports.Fetcher for six-face cubemaps.
type Fetcher struct {
	source Source

	mu    sync.RWMutex
	limit int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSource replaces the location source.
func WithSource(s Source) Option {
	return func(f *Fetcher) {
		f.source = s
	}
}

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.source = NewRouter(c)
	}
}

// New creates a Fetcher that fetches all faces of a resource concurrently.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		source: NewRouter(nil),
		limit:  domain.DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetConcurrency bounds the faces fetched at once. Values below one are
// ignored.
func (f *Fetcher) SetConcurrency(n int) {
	if n < 1 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = n
}

// Concurrency returns the current face concurrency.
func (f *Fetcher) Concurrency() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.limit
}

// FetchAndDecode fetches and decodes the six faces. Either all faces decode
// into a *Cubemap or an error is returned and no pixels are retained.
func (f *Fetcher) FetchAndDecode(ctx context.Context, locations []string) (domain.Resource, error) {
	if len(locations) != domain.FaceCount {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidCubemap, "cubemap requires exactly six faces"), "faces", len(locations))
	}

	var faces [domain.FaceCount]*image.NRGBA

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency())

	for i, loc := range locations {
		g.Go(func() error {
			face, err := f.fetchFace(gctx, loc)
			if err != nil {
				err = zerr.With(err, "face", domain.Face(i).String())
				return zerr.With(err, "location", loc)
			}
			faces[i] = face
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewCubemap(faces)
}

func (f *Fetcher) fetchFace(ctx context.Context, location string) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := f.read(ctx, location)
	if err != nil {
		return nil, err
	}
	return decodeFace(data)
}

func (f *Fetcher) read(ctx context.Context, location string) ([]byte, error) {
	rc, err := f.source.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxFaceBytes))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read face")
	}
	return data, nil
}
