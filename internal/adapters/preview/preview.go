// Package preview renders cubemaps as a flat cross image.
package preview

import (
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultTileSize is the tile edge used when Render is given a non-positive size.
const DefaultTileSize = 128

// faceSource is implemented by cubemap resources.
type faceSource interface {
	Face(f domain.Face) *image.NRGBA
}

// crossLayout places each face on a 4x3 grid:
//
//	    +y
//	-x  +z  +x  -z
//	    -y
var crossLayout = [domain.FaceCount]image.Point{
	domain.FacePosX: {X: 2, Y: 1},
	domain.FaceNegX: {X: 0, Y: 1},
	domain.FacePosY: {X: 1, Y: 0},
	domain.FaceNegY: {X: 1, Y: 2},
	domain.FacePosZ: {X: 1, Y: 1},
	domain.FaceNegZ: {X: 3, Y: 1},
}

// Renderer implements ports.Previewer with lossless WebP output.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes res as a horizontal cross with tiles of size pixels.
func (r *Renderer) Render(w io.Writer, res domain.Resource, size int) error {
	img, err := r.Compose(res, size)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return zerr.Wrap(err, "failed to encode preview")
	}
	return nil
}

// Compose lays the faces of res out on a transparent canvas.
func (r *Renderer) Compose(res domain.Resource, size int) (*image.NRGBA, error) {
	src, ok := res.(faceSource)
	if !ok {
		return nil, zerr.Wrap(domain.ErrUnsupportedResource, "resource has no faces")
	}
	if size <= 0 {
		size = DefaultTileSize
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, 4*size, 3*size))
	for i, cell := range crossLayout {
		face := src.Face(domain.Face(i))
		if face == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrAlreadyDisposed, "face released"), "face", domain.Face(i).String())
		}
		tile := image.Rect(cell.X*size, cell.Y*size, (cell.X+1)*size, (cell.Y+1)*size)
		draw.CatmullRom.Scale(canvas, tile, face, face.Bounds(), draw.Src, nil)
	}
	return canvas, nil
}
