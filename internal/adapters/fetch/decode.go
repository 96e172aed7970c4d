package fetch

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"go.trai.ch/skybox/internal/core/domain"
)

// faceFormat pairs a magic prefix with its decoder.
type faceFormat struct {
	name   string
	match  func(data []byte) bool
	decode func(r io.Reader) (image.Image, error)
}

// TGA has no magic number and registers itself with image.RegisterFormat
// under an empty prefix, which matches every input. Formats are therefore
// sniffed here in a fixed order and TGA is only tried last.
var faceFormats = []faceFormat{
	{name: "png", match: prefix("\x89PNG\r\n\x1a\n"), decode: png.Decode},
	{name: "jpeg", match: prefix("\xff\xd8"), decode: jpeg.Decode},
	{name: "gif", match: func(d []byte) bool { return hasPrefix(d, "GIF87a") || hasPrefix(d, "GIF89a") }, decode: gif.Decode},
	{name: "webp", match: isWebP, decode: decodeWebP},
	{name: "bmp", match: prefix("BM"), decode: bmp.Decode},
	{name: "tiff", match: func(d []byte) bool { return hasPrefix(d, "II*\x00") || hasPrefix(d, "MM\x00*") }, decode: tiff.Decode},
}

// decodeFace decodes an encoded face into NRGBA pixels.
func decodeFace(data []byte) (*image.NRGBA, error) {
	decode := tga.Decode
	for _, f := range faceFormats {
		if f.match(data) {
			decode = f.decode
			break
		}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(domain.ErrFaceDecodeFailed, err)
	}
	return toNRGBA(img), nil
}

func decodeWebP(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := nativewebp.Decode(bytes.NewReader(data))
	if err != nil {
		// Lossless files written with the VP8X alpha flag but no ALPH chunk.
		return nativewebp.DecodeIgnoreAlphaFlag(bytes.NewReader(data))
	}
	return img, nil
}

func prefix(magic string) func([]byte) bool {
	return func(data []byte) bool { return hasPrefix(data, magic) }
}

func hasPrefix(data []byte, magic string) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// toNRGBA converts any image to an NRGBA image anchored at the origin.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
