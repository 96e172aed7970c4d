package preview_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/skybox/internal/adapters/fetch"
	"go.trai.ch/skybox/internal/adapters/preview"
	"go.trai.ch/skybox/internal/core/domain"
)

var faceColors = [domain.FaceCount]color.NRGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{G: 255, B: 255, A: 255},
	{R: 255, B: 255, A: 255},
}

func newCube(t *testing.T, edge int) *fetch.Cubemap {
	t.Helper()
	var faces [domain.FaceCount]*image.NRGBA
	for i := range faces {
		img := image.NewNRGBA(image.Rect(0, 0, edge, edge))
		c := faceColors[i]
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
		}
		faces[i] = img
	}
	c, err := fetch.NewCubemap(faces)
	require.NoError(t, err)
	return c
}

func TestRenderer_ComposeCross(t *testing.T) {
	img, err := preview.New().Compose(newCube(t, 8), 4)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 16, 12), img.Bounds())

	center := func(x, y int) color.NRGBA { return img.NRGBAAt(x*4+2, y*4+2) }
	assert.Equal(t, faceColors[domain.FacePosY], center(1, 0))
	assert.Equal(t, faceColors[domain.FaceNegX], center(0, 1))
	assert.Equal(t, faceColors[domain.FacePosZ], center(1, 1))
	assert.Equal(t, faceColors[domain.FacePosX], center(2, 1))
	assert.Equal(t, faceColors[domain.FaceNegZ], center(3, 1))
	assert.Equal(t, faceColors[domain.FaceNegY], center(1, 2))

	assert.Equal(t, uint8(0), center(0, 0).A, "unused cells stay transparent")
}

func TestRenderer_RenderWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, preview.New().Render(&buf, newCube(t, 4), 0))

	img, err := nativewebp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4*preview.DefaultTileSize, 3*preview.DefaultTileSize), img.Bounds())
}

type opaque struct{}

func (opaque) Dispose() error { return nil }

func TestRenderer_Errors(t *testing.T) {
	r := preview.New()

	err := r.Render(&bytes.Buffer{}, opaque{}, 4)
	require.ErrorIs(t, err, domain.ErrUnsupportedResource)

	c := newCube(t, 4)
	require.NoError(t, c.Dispose())
	_, err = r.Compose(c, 4)
	require.ErrorIs(t, err, domain.ErrAlreadyDisposed)
}
