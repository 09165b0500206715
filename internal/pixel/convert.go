package pixel

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// BytesPerPixel is the fixed pixel size of a packed notification bitmap.
const BytesPerPixel = 4

// opaque is the alpha written for sources without an alpha channel.
const opaque = 0xFF

// Conversion errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrBufferTooSmall    = errors.New("pixel buffer too small")
)

// Raster is a decoded source image.
// Rows are Stride bytes apart; only the first Width*BytesPerPixel bytes of a
// row are pixel data, the rest is padding.
type Raster struct {
	Width  int
	Height int
	Format Format
	// Stride is the distance in bytes between rows. Zero means rows are packed.
	Stride int
	Pix    []byte
}

// RowStride returns the effective stride of the raster.
func (r *Raster) RowStride() int {
	if r.Stride == 0 {
		return r.Width * r.Format.BytesPerPixel()
	}
	return r.Stride
}

// Bitmap is a packed 4-bytes-per-pixel buffer in submission channel order.
// len(Pix) is always Width*Height*4.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// Size returns the exact buffer length a bitmap of the given dimensions has.
func Size(width, height int) int {
	return width * height * BytesPerPixel
}

// Validate checks that the buffer length matches the dimensions.
func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bitmap", ErrInvalidDimensions)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if want := Size(b.Width, b.Height); len(b.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrBufferTooSmall, len(b.Pix), want)
	}
	return nil
}

// Convert packs a raster into a notification bitmap.
//
// Each pixel has its bytes at offsets 0 and 2 exchanged, the remaining bytes
// keep their position, gray sources are replicated into all three colour
// bytes, and sources without alpha get a fully opaque alpha byte. Row padding
// is skipped. The raster is never modified.
func Convert(r Raster) (*Bitmap, error) {
	bpp := r.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.Format)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, r.Width, r.Height)
	}

	if r.Width > math.MaxInt/BytesPerPixel/r.Height {
		return nil, fmt.Errorf("%w: %dx%d overflows", ErrInvalidDimensions, r.Width, r.Height)
	}

	rowBytes := r.Width * bpp
	stride := r.RowStride()
	if stride < rowBytes {
		return nil, fmt.Errorf("%w: stride %d shorter than row of %d bytes", ErrInvalidDimensions, stride, rowBytes)
	}
	if r.Height > math.MaxInt/stride {
		return nil, fmt.Errorf("%w: stride %d overflows at height %d", ErrInvalidDimensions, stride, r.Height)
	}

	// The last row only needs its meaningful bytes, but the declared layout is
	// stride*height and anything shorter is treated as truncated.
	if need := stride * r.Height; len(r.Pix) < need {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrBufferTooSmall, len(r.Pix), need)
	}

	alpha := r.Format.HasAlpha()
	dstRow := r.Width * BytesPerPixel
	out := make([]byte, Size(r.Width, r.Height))

	for y := 0; y < r.Height; y++ {
		src := r.Pix[y*stride : y*stride+rowBytes]
		dst := out[y*dstRow : (y+1)*dstRow]
		for x := 0; x < r.Width; x++ {
			packPixel(dst[x*BytesPerPixel:(x+1)*BytesPerPixel], src[x*bpp:(x+1)*bpp], alpha)
		}
	}

	return &Bitmap{Width: r.Width, Height: r.Height, Pix: out}, nil
}

// packPixel writes one source pixel into a 4-byte destination.
func packPixel(d, s []byte, alpha bool) {
	switch len(s) {
	case 1:
		d[0], d[1], d[2], d[3] = s[0], s[0], s[0], opaque
	case 2:
		d[0], d[1], d[2], d[3] = s[0], s[0], s[0], s[1]
	case 3:
		d[0], d[1], d[2], d[3] = s[2], s[1], s[0], opaque
	case 4:
		d[0], d[1], d[2] = s[2], s[1], s[0]
		if alpha {
			d[3] = s[3]
		} else {
			d[3] = opaque
		}
	}
}

// SwapRedBlue returns a copy of pix with the bytes at offsets 0 and 2 of
// every bpp-sized pixel exchanged. One and two byte pixels have no separate
// red and blue bytes and are copied unchanged, as is any trailing partial
// pixel. Applying it twice yields the original bytes.
func SwapRedBlue(pix []byte, bpp int) ([]byte, error) {
	if bpp < 1 || bpp > 4 {
		return nil, fmt.Errorf("%w: %d bytes per pixel", ErrUnsupportedFormat, bpp)
	}

	out := make([]byte, len(pix))
	copy(out, pix)
	if bpp < 3 {
		return out, nil
	}

	for i := 0; i+bpp <= len(out); i += bpp {
		out[i], out[i+2] = out[i+2], out[i]
	}
	return out, nil
}

// NRGBA returns the bitmap as a non-premultiplied image in natural
// red-green-blue-alpha order. The bitmap itself is not modified.
func (b *Bitmap) NRGBA() (*image.NRGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	pix, err := SwapRedBlue(b.Pix, BytesPerPixel)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: b.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}, nil
}
