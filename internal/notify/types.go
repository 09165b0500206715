package notify

import (
	"context"
	"fmt"
	"strings"
)

// OverlayHandle identifies a live compositor overlay. Zero is never valid.
type OverlayHandle uint64

// InvalidOverlay is the zero handle.
const InvalidOverlay OverlayHandle = 0

// NotificationID identifies a submitted notification within one call.
type NotificationID uint32

// Style selects how the compositor presents the notification.
type Style int

const (
	// StyleNone requests no particular presentation.
	StyleNone Style = iota
	// StyleApplication is the default presentation for application messages.
	StyleApplication
	// StyleSystem marks a system-level message.
	StyleSystem
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleNone:
		return "none"
	case StyleApplication:
		return "application"
	case StyleSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ParseStyle parses a style name as written in config files and flags.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return StyleNone, nil
	case "application", "app", "":
		return StyleApplication, nil
	case "system":
		return StyleSystem, nil
	default:
		return StyleNone, fmt.Errorf("unknown notification style %q", s)
	}
}

// Type is the notification lifetime class.
type Type int

const (
	// TypeTransient notifications are dismissed by the compositor on its own.
	TypeTransient Type = iota
)

// String returns the type name.
func (t Type) String() string {
	if t == TypeTransient {
		return "transient"
	}
	return "unknown"
}

// BitmapDescriptor points at a packed 4-byte-per-pixel buffer.
// It borrows Pix from the caller and must not be retained.
type BitmapDescriptor struct {
	Pix           []byte
	Width         int
	Height        int
	BytesPerPixel int
}

// Request is a single notification creation call.
type Request struct {
	Overlay   OverlayHandle
	UserValue uint64
	Type      Type
	Text      string
	Style     Style
	Bitmap    *BitmapDescriptor
	ID        NotificationID
}

// Compositor is the notification surface of a VR compositor.
type Compositor interface {
	// OverlayValid reports whether the handle refers to a live overlay.
	OverlayValid(h OverlayHandle) bool
	// CreateNotification shows a notification. Failures should be
	// ErrInvalidOverlay or a *RejectedError.
	CreateNotification(ctx context.Context, req *Request) error
}

// OverlayManager creates and destroys overlays.
type OverlayManager interface {
	CreateOverlay(key, name string) (OverlayHandle, error)
	DestroyOverlay(h OverlayHandle) error
}
