package fetch_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/skybox/internal/adapters/fetch"
	"go.trai.ch/skybox/internal/core/domain"
)

func newCube(t *testing.T, edge int) *fetch.Cubemap {
	t.Helper()
	var faces [domain.FaceCount]*image.NRGBA
	for i := range faces {
		faces[i] = solid(edge, color.NRGBA{B: uint8(i), A: 255})
	}
	c, err := fetch.NewCubemap(faces)
	require.NoError(t, err)
	return c
}

func TestCubemap_TuneDownsamples(t *testing.T) {
	c := newCube(t, 64)
	before := c.Fingerprint()

	c.Tune(domain.Capabilities{MaxTextureSize: 16, MaxAnisotropy: 8})

	assert.Equal(t, 16, c.Edge())
	assert.Equal(t, 8, c.Anisotropy())
	assert.Equal(t, int64(6*16*16*4), c.SizeBytes())
	assert.NotEqual(t, before, c.Fingerprint())
	assert.Equal(t, uint8(3), c.Face(domain.FaceNegY).Pix[2], "solid colors survive scaling")
}

func TestCubemap_TuneKeepsSmallFaces(t *testing.T) {
	c := newCube(t, 8)
	before := c.Fingerprint()

	c.Tune(domain.Capabilities{})

	assert.Equal(t, 8, c.Edge())
	assert.Equal(t, domain.DefaultMaxAnisotropy, c.Anisotropy())
	assert.Equal(t, before, c.Fingerprint())
}

func TestCubemap_FingerprintIsContentHash(t *testing.T) {
	assert.Equal(t, newCube(t, 4).Fingerprint(), newCube(t, 4).Fingerprint())
	assert.NotEqual(t, newCube(t, 4).Fingerprint(), newCube(t, 8).Fingerprint())
}

func TestCubemap_Dispose(t *testing.T) {
	c := newCube(t, 4)

	require.NoError(t, c.Dispose())
	assert.True(t, c.Disposed())
	assert.Nil(t, c.Face(domain.FacePosX))
	assert.Zero(t, c.SizeBytes())
	assert.Zero(t, c.Edge())

	require.ErrorIs(t, c.Dispose(), domain.ErrAlreadyDisposed)

	// Tuning a disposed cubemap is a no-op.
	c.Tune(domain.Capabilities{MaxTextureSize: 2})
	assert.Zero(t, c.Edge())
}

func TestNewCubemap_Validation(t *testing.T) {
	var faces [domain.FaceCount]*image.NRGBA
	for i := range faces {
		faces[i] = solid(4, color.NRGBA{A: 255})
	}

	missing := faces
	missing[3] = nil
	_, err := fetch.NewCubemap(missing)
	require.ErrorIs(t, err, domain.ErrInvalidCubemap)
	assert.Contains(t, err.Error(), "missing face")

	uneven := faces
	uneven[5] = solid(2, color.NRGBA{A: 255})
	_, err = fetch.NewCubemap(uneven)
	require.ErrorIs(t, err, domain.ErrInvalidCubemap)
	assert.Contains(t, err.Error(), "face sizes differ")
}
