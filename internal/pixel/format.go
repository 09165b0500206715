package pixel

import (
	"fmt"
	"strings"
)

// Format identifies the channel order and size of a source pixel.
type Format int

const (
	// FormatUnknown is the zero value; it has no determinable pixel size.
	FormatUnknown Format = iota
	// FormatGray8 is one luminance byte per pixel.
	FormatGray8
	// FormatGrayAlpha16 is a luminance byte followed by an alpha byte.
	FormatGrayAlpha16
	// FormatRGB24 is red, green, blue.
	FormatRGB24
	// FormatBGR24 is blue, green, red.
	FormatBGR24
	// FormatRGBA32 is red, green, blue, alpha.
	FormatRGBA32
	// FormatBGRA32 is blue, green, red, alpha.
	FormatBGRA32
	// FormatRGBX32 is red, green, blue and an unused padding byte.
	FormatRGBX32
	// FormatBGRX32 is blue, green, red and an unused padding byte.
	FormatBGRX32
)

type formatInfo struct {
	name  string
	bpp   int
	alpha bool
}

var formatTable = map[Format]formatInfo{
	FormatGray8:       {name: "gray8", bpp: 1},
	FormatGrayAlpha16: {name: "grayalpha16", bpp: 2, alpha: true},
	FormatRGB24:       {name: "rgb24", bpp: 3},
	FormatBGR24:       {name: "bgr24", bpp: 3},
	FormatRGBA32:      {name: "rgba32", bpp: 4, alpha: true},
	FormatBGRA32:      {name: "bgra32", bpp: 4, alpha: true},
	FormatRGBX32:      {name: "rgbx32", bpp: 4},
	FormatBGRX32:      {name: "bgrx32", bpp: 4},
}

// String returns the lower-case format name, or "unknown".
func (f Format) String() string {
	if info, ok := formatTable[f]; ok {
		return info.name
	}
	return "unknown"
}

// BytesPerPixel returns the pixel size in bytes, or 0 when the format is not known.
func (f Format) BytesPerPixel() int {
	return formatTable[f].bpp
}

// HasAlpha reports whether the format carries its own alpha channel.
func (f Format) HasAlpha() bool {
	return formatTable[f].alpha
}

// Formats returns every known format in declaration order.
func Formats() []Format {
	return []Format{
		FormatGray8,
		FormatGrayAlpha16,
		FormatRGB24,
		FormatBGR24,
		FormatRGBA32,
		FormatBGRA32,
		FormatRGBX32,
		FormatBGRX32,
	}
}

// ParseFormat looks up a format by name (case-insensitive).
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats() {
		if f.String() == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
