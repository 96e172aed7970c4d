package fetch

import (
	"image"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/draw"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
)

// Cubemap is a decoded six-face environment map.
type Cubemap struct {
	mu          sync.Mutex
	faces       [domain.FaceCount]*image.NRGBA
	anisotropy  int
	fingerprint uint64
	disposed    bool
}

// NewCubemap validates that faces are square and of equal size.
func NewCubemap(faces [domain.FaceCount]*image.NRGBA) (*Cubemap, error) {
	var edge int
	for i, face := range faces {
		f := domain.Face(i).String()
		if face == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidCubemap, "missing face"), "face", f)
		}

		b := face.Bounds()
		if b.Dx() != b.Dy() || b.Dx() == 0 {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidCubemap, "face is not square"), "face", f)
			return nil, zerr.With(err, "size", b.Size().String())
		}
		if i == 0 {
			edge = b.Dx()
			continue
		}
		if b.Dx() != edge {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidCubemap, "face sizes differ"), "face", f)
			return nil, zerr.With(err, "size", b.Dx())
		}
	}

	c := &Cubemap{faces: faces, anisotropy: domain.DefaultMaxAnisotropy}
	c.fingerprint = fingerprint(faces)
	return c, nil
}

func fingerprint(faces [domain.FaceCount]*image.NRGBA) uint64 {
	h := xxhash.New()
	for _, face := range faces {
		_, _ = h.Write(face.Pix)
	}
	return h.Sum64()
}

// Face returns the pixels of f, or nil once disposed.
func (c *Cubemap) Face(f domain.Face) *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f < 0 || int(f) >= domain.FaceCount {
		return nil
	}
	return c.faces[f]
}

// Edge returns the face edge length in pixels.
func (c *Cubemap) Edge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.faces[0] == nil {
		return 0
	}
	return c.faces[0].Bounds().Dx()
}

// Anisotropy returns the anisotropic filtering level chosen by Tune.
func (c *Cubemap) Anisotropy() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anisotropy
}

// Fingerprint returns a hash of the pixel data.
func (c *Cubemap) Fingerprint() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fingerprint
}

// SizeBytes returns the resident pixel size.
func (c *Cubemap) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, face := range c.faces {
		if face != nil {
			n += int64(len(face.Pix))
		}
	}
	return n
}

// Tune sets the anisotropy from caps and downsamples faces larger than the
// supported texture size.
func (c *Cubemap) Tune(caps domain.Capabilities) {
	caps = caps.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	c.anisotropy = caps.MaxAnisotropy

	edge := c.faces[0].Bounds().Dx()
	if edge <= caps.MaxTextureSize {
		return
	}

	size := caps.MaxTextureSize
	for i, face := range c.faces {
		dst := image.NewNRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), face, face.Bounds(), draw.Src, nil)
		c.faces[i] = dst
	}
	c.fingerprint = fingerprint(c.faces)
}

// Dispose drops the pixel buffers.
func (c *Cubemap) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return domain.ErrAlreadyDisposed
	}
	c.disposed = true
	c.faces = [domain.FaceCount]*image.NRGBA{}
	return nil
}

// Disposed reports whether Dispose has been called.
func (c *Cubemap) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
