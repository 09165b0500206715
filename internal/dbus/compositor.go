package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

// ErrOverlayKeyInUse is returned when an overlay key is already registered.
var ErrOverlayKeyInUse = errors.New("overlay key already in use")

// BusObject is the subset of dbus.BusObject used to reach the server.
type BusObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Options configures a Compositor.
type Options struct {
	// AppName is sent as app_name and the desktop-entry hint.
	AppName string
	// ExpireTimeout is how long the server shows a notification. Zero leaves
	// it to the server.
	ExpireTimeout time.Duration
	// RateInterval is the minimum spacing between notifications. Zero
	// disables rate limiting.
	RateInterval time.Duration
	// RateBurst is the number of notifications allowed back to back.
	RateBurst int
}

type overlay struct {
	key     string
	name    string
	visible bool
}

// Compositor implements notify.Compositor and notify.OverlayManager on top of
// a freedesktop notification server.
type Compositor struct {
	obj     BusObject
	conn    *dbus.Conn
	logger  *slog.Logger
	opts    Options
	limiter *rate.Limiter

	nextHandle atomic.Uint64

	mu       sync.RWMutex
	overlays map[notify.OverlayHandle]*overlay
	shown    map[notify.NotificationID]uint32 // local ID -> server ID
}

// New creates a Compositor that calls obj.
func New(obj BusObject, opts Options, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AppName == "" {
		opts.AppName = "vrnotify"
	}

	c := &Compositor{
		obj:      obj,
		logger:   logger,
		opts:     opts,
		overlays: make(map[notify.OverlayHandle]*overlay),
		shown:    make(map[notify.NotificationID]uint32),
	}
	if opts.RateInterval > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(opts.RateInterval), burst)
	}
	return c
}

// Connect opens a private session bus connection and returns a Compositor
// using it. Close releases the connection.
func Connect(opts Options, logger *slog.Logger) (*Compositor, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	c := New(conn.Object(DBusBusName, DBusPath), opts, logger)
	c.conn = conn
	return c, nil
}

// Close closes the bus connection opened by Connect.
func (c *Compositor) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// ServerInformation queries the notification server's identity.
func (c *Compositor) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0)
	if call.Err != nil {
		return info, fmt.Errorf("GetServerInformation: %w", call.Err)
	}
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return info, fmt.Errorf("GetServerInformation: %w", err)
	}
	return info, nil
}

// CreateOverlay implements notify.OverlayManager. Overlays start visible.
func (c *Compositor) CreateOverlay(key, name string) (notify.OverlayHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range c.overlays {
		if o.key == key {
			return notify.InvalidOverlay, fmt.Errorf("%w: %q", ErrOverlayKeyInUse, key)
		}
	}

	h := notify.OverlayHandle(c.nextHandle.Add(1))
	c.overlays[h] = &overlay{key: key, name: name, visible: true}
	c.logger.Debug("overlay created", "overlay", h, "key", key, "name", name)
	return h, nil
}

// DestroyOverlay implements notify.OverlayManager.
func (c *Compositor) DestroyOverlay(h notify.OverlayHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.overlays[h]; !ok {
		return fmt.Errorf("%w: %d", notify.ErrInvalidOverlay, h)
	}
	delete(c.overlays, h)
	c.logger.Debug("overlay destroyed", "overlay", h)
	return nil
}

// SetOverlayVisible shows or hides an overlay. Hidden overlays refuse
// notifications.
func (c *Compositor) SetOverlayVisible(h notify.OverlayHandle, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.overlays[h]
	if !ok {
		return fmt.Errorf("%w: %d", notify.ErrInvalidOverlay, h)
	}
	o.visible = visible
	return nil
}

// OverlayValid implements notify.Compositor.
func (c *Compositor) OverlayValid(h notify.OverlayHandle) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.overlays[h]
	return ok
}

// CreateNotification implements notify.Compositor.
func (c *Compositor) CreateNotification(ctx context.Context, req *notify.Request) error {
	c.mu.RLock()
	o, ok := c.overlays[req.Overlay]
	var name string
	var visible, dup bool
	if ok {
		name, visible = o.name, o.visible
		_, dup = c.shown[req.ID]
	}
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", notify.ErrInvalidOverlay, req.Overlay)
	}
	if !visible {
		return notify.Reject(notify.ReasonOverlayHidden, fmt.Errorf("overlay %d is hidden", req.Overlay))
	}
	if dup {
		return notify.Reject(notify.ReasonDuplicateID, fmt.Errorf("id %d already shown", req.ID))
	}
	if err := checkDescriptor(req.Bitmap); err != nil {
		return notify.Reject(notify.ReasonMalformedBitmap, err)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return notify.Reject(notify.ReasonRateLimited, fmt.Errorf("more than %d notification(s) per %s", c.limiter.Burst(), c.opts.RateInterval))
	}

	img, err := NewImageData(req.Bitmap)
	if err != nil {
		return notify.Reject(notify.ReasonMalformedBitmap, err)
	}

	hints := map[string]dbus.Variant{
		HintImageData:    dbus.MakeVariant(img),
		HintTransient:    dbus.MakeVariant(req.Type == notify.TypeTransient),
		HintUrgency:      dbus.MakeVariant(UrgencyFor(req.Style)),
		HintDesktopEntry: dbus.MakeVariant(c.opts.AppName),
		HintUserValue:    dbus.MakeVariant(req.UserValue),
		HintID:           dbus.MakeVariant(uint32(req.ID)),
	}

	call := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		c.opts.AppName,           // app_name
		uint32(0),                // replaces_id
		"",                       // app_icon
		name,                     // summary
		req.Text,                 // body
		[]string{},               // actions
		hints,                    // hints
		expireTimeout(c.opts.ExpireTimeout),
	)
	if call.Err != nil {
		return notify.Reject(notify.ReasonTransport, call.Err)
	}

	var serverID uint32
	if err := call.Store(&serverID); err != nil {
		return notify.Reject(notify.ReasonTransport, err)
	}

	c.mu.Lock()
	c.shown[req.ID] = serverID
	c.mu.Unlock()

	c.logger.Debug("notification sent", "overlay", req.Overlay, "id", req.ID, "server_id", serverID)
	return nil
}

// checkDescriptor verifies a bitmap descriptor before it goes on the wire.
func checkDescriptor(b *notify.BitmapDescriptor) error {
	if b == nil {
		return errors.New("missing bitmap")
	}
	if b.BytesPerPixel != pixel.BytesPerPixel {
		return fmt.Errorf("%d bytes per pixel, want %d", b.BytesPerPixel, pixel.BytesPerPixel)
	}
	if b.Width <= 0 || b.Height <= 0 || b.Width > math.MaxInt32/pixel.BytesPerPixel || b.Height > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d", pixel.ErrInvalidDimensions, b.Width, b.Height)
	}
	if want := pixel.Size(b.Width, b.Height); len(b.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", pixel.ErrBufferTooSmall, len(b.Pix), want)
	}
	return nil
}

// expireTimeout converts a duration to the Notify expire_timeout argument.
func expireTimeout(d time.Duration) int32 {
	if d <= 0 {
		return -1
	}
	if ms := d.Milliseconds(); ms < math.MaxInt32 {
		return int32(ms)
	}
	return math.MaxInt32
}
