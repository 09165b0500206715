package dbus

import (
	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the well-known name of the notification server.
	DBusBusName = "org.freedesktop.Notifications"
)

// Hint keys sent with every notification.
const (
	HintImageData    = "image-data"
	HintTransient    = "transient"
	HintUrgency      = "urgency"
	HintDesktopEntry = "desktop-entry"
	HintUserValue    = "x-vrnotify-user-value"
	HintID           = "x-vrnotify-id"
)

// Urgency levels defined by the freedesktop notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// UrgencyFor maps a notification style onto a freedesktop urgency level.
func UrgencyFor(s notify.Style) byte {
	switch s {
	case notify.StyleSystem:
		return UrgencyCritical
	case notify.StyleNone:
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

// ImageData is the image-data hint, marshalled as (iiibiiay):
// width, height, rowstride, has_alpha, bits_per_sample, channels, data.
// Data is in red, green, blue, alpha order.
type ImageData struct {
	Width         int32
	Height        int32
	RowStride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// NewImageData builds the hint from a bitmap descriptor. The descriptor's
// buffer is in submission order, so the colour bytes are swapped back into a
// fresh slice; the descriptor itself is left untouched.
func NewImageData(b *notify.BitmapDescriptor) (ImageData, error) {
	data, err := pixel.SwapRedBlue(b.Pix, b.BytesPerPixel)
	if err != nil {
		return ImageData{}, err
	}
	return ImageData{
		Width:         int32(b.Width),
		Height:        int32(b.Height),
		RowStride:     int32(b.Width * b.BytesPerPixel),
		HasAlpha:      true,
		BitsPerSample: 8,
		Channels:      int32(b.BytesPerPixel),
		Data:          data,
	}, nil
}

// ServerInfo is the reply of GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}
