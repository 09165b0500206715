// Package imagefile loads image files from disk into rasters the pixel
// converter understands.
package imagefile

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/jmylchreest/vrnotify/internal/pixel"
)

var (
	// ErrNotFound is returned when the image path does not resolve to a file.
	ErrNotFound = errors.New("image not found")
	// ErrUnknownFormat is returned when no registered decoder accepts the data.
	ErrUnknownFormat = errors.New("unknown image format")
)

// extensions lists file extensions with a registered decoder.
var extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Extensions returns the file extensions this package can decode.
func Extensions() []string {
	out := make([]string, len(extensions))
	copy(out, extensions)
	return out
}

// Supported reports whether path has a decodable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Decoder turns an image file into a raster.
type Decoder interface {
	Decode(path string) (pixel.Raster, error)
}

// FileDecoder decodes files with the image codecs registered in this package.
type FileDecoder struct{}

// Decode implements Decoder.
func (FileDecoder) Decode(path string) (pixel.Raster, error) {
	return Decode(path)
}

// Decode opens and decodes the image at path.
func Decode(path string) (pixel.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pixel.Raster{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return pixel.Raster{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := DecodeReader(f)
	if err != nil {
		return pixel.Raster{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// DecodeReader decodes an image from r.
func DecodeReader(r io.Reader) (pixel.Raster, error) {
	img, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return pixel.Raster{}, ErrUnknownFormat
		}
		return pixel.Raster{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage describes img as a raster. Layouts that map directly onto a
// pixel.Format share the image's buffer; everything else is drawn into a
// non-premultiplied RGBA copy first.
func FromImage(img image.Image) pixel.Raster {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		switch src := img.(type) {
		case *image.NRGBA:
			return raster(b, pixel.FormatRGBA32, src.Stride, src.Pix)
		case *image.RGBA:
			// Premultiplied and straight alpha agree when every pixel is opaque.
			if src.Opaque() {
				return raster(b, pixel.FormatRGBX32, src.Stride, src.Pix)
			}
		case *image.Gray:
			return raster(b, pixel.FormatGray8, src.Stride, src.Pix)
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return raster(dst.Bounds(), pixel.FormatRGBA32, dst.Stride, dst.Pix)
}

func raster(b image.Rectangle, f pixel.Format, stride int, pix []byte) pixel.Raster {
	return pixel.Raster{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: f,
		Stride: stride,
		Pix:    pix,
	}
}
