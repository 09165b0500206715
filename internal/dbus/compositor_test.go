package dbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

type fakeBus struct {
	CallFunc func(method string, args ...interface{}) *dbus.Call

	methods []string
	args    [][]interface{}
}

func (f *fakeBus) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.methods = append(f.methods, method)
	f.args = append(f.args, args)
	if f.CallFunc != nil {
		return f.CallFunc(method, args...)
	}
	return &dbus.Call{Body: []interface{}{uint32(len(f.methods))}}
}

func redRequest(h notify.OverlayHandle, id notify.NotificationID) *notify.Request {
	return &notify.Request{
		Overlay: h,
		Type:    notify.TypeTransient,
		Text:    "This is a test.",
		Style:   notify.StyleApplication,
		ID:      id,
		Bitmap: &notify.BitmapDescriptor{
			Pix:           []byte{0, 0, 255, 255},
			Width:         1,
			Height:        1,
			BytesPerPixel: 4,
		},
	}
}

func TestCompositor_CreateNotification(t *testing.T) {
	bus := &fakeBus{}
	c := New(bus, Options{AppName: "vrtest", ExpireTimeout: 5 * time.Second}, nil)

	h, err := c.CreateOverlay("key-1", "Test Overlay")
	require.NoError(t, err)

	req := redRequest(h, 12)
	req.UserValue = 99
	require.NoError(t, c.CreateNotification(context.Background(), req))

	require.Equal(t, []string{DBusInterface + ".Notify"}, bus.methods)
	args := bus.args[0]
	require.Len(t, args, 8)
	assert.Equal(t, "vrtest", args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "Test Overlay", args[3])
	assert.Equal(t, "This is a test.", args[4])
	assert.Equal(t, int32(5000), args[7])

	hints, ok := args[6].(map[string]dbus.Variant)
	require.True(t, ok)

	imgVariant := hints[HintImageData]
	assert.Equal(t, "(iiibiiay)", imgVariant.Signature().String())
	img, ok := imgVariant.Value().(ImageData)
	require.True(t, ok)
	assert.Equal(t, int32(1), img.Width)
	assert.Equal(t, int32(4), img.RowStride)
	assert.Equal(t, int32(8), img.BitsPerSample)
	assert.Equal(t, int32(4), img.Channels)
	assert.True(t, img.HasAlpha)
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Data)

	assert.Equal(t, true, hints[HintTransient].Value())
	assert.Equal(t, UrgencyNormal, hints[HintUrgency].Value())
	assert.Equal(t, "vrtest", hints[HintDesktopEntry].Value())
	assert.Equal(t, uint64(99), hints[HintUserValue].Value())
	assert.Equal(t, uint32(12), hints[HintID].Value())

	// the submitted buffer keeps its order
	assert.Equal(t, []byte{0, 0, 255, 255}, req.Bitmap.Pix)
}

func TestCompositor_Rejections(t *testing.T) {
	t.Run("unknown overlay", func(t *testing.T) {
		c := New(&fakeBus{}, Options{}, nil)
		err := c.CreateNotification(context.Background(), redRequest(5, 1))
		assert.ErrorIs(t, err, notify.ErrInvalidOverlay)
	})

	t.Run("hidden overlay", func(t *testing.T) {
		bus := &fakeBus{}
		c := New(bus, Options{}, nil)
		h, err := c.CreateOverlay("k", "n")
		require.NoError(t, err)
		require.NoError(t, c.SetOverlayVisible(h, false))

		err = c.CreateNotification(context.Background(), redRequest(h, 1))
		assert.Equal(t, notify.ReasonOverlayHidden, notify.ReasonOf(err))
		assert.Empty(t, bus.methods)
	})

	t.Run("duplicate id", func(t *testing.T) {
		c := New(&fakeBus{}, Options{}, nil)
		h, err := c.CreateOverlay("k", "n")
		require.NoError(t, err)

		require.NoError(t, c.CreateNotification(context.Background(), redRequest(h, 3)))
		err = c.CreateNotification(context.Background(), redRequest(h, 3))
		assert.Equal(t, notify.ReasonDuplicateID, notify.ReasonOf(err))
	})

	t.Run("malformed descriptor", func(t *testing.T) {
		bus := &fakeBus{}
		c := New(bus, Options{}, nil)
		h, err := c.CreateOverlay("k", "n")
		require.NoError(t, err)

		req := redRequest(h, 1)
		req.Bitmap.Pix = req.Bitmap.Pix[:3]
		err = c.CreateNotification(context.Background(), req)
		assert.Equal(t, notify.ReasonMalformedBitmap, notify.ReasonOf(err))

		req = redRequest(h, 2)
		req.Bitmap.BytesPerPixel = 3
		err = c.CreateNotification(context.Background(), req)
		assert.Equal(t, notify.ReasonMalformedBitmap, notify.ReasonOf(err))
		assert.Empty(t, bus.methods)
	})

	t.Run("rate limited", func(t *testing.T) {
		c := New(&fakeBus{}, Options{RateInterval: time.Hour, RateBurst: 1}, nil)
		h, err := c.CreateOverlay("k", "n")
		require.NoError(t, err)

		require.NoError(t, c.CreateNotification(context.Background(), redRequest(h, 1)))
		err = c.CreateNotification(context.Background(), redRequest(h, 2))
		assert.ErrorIs(t, err, notify.ErrSubmissionRejected)
		assert.Equal(t, notify.ReasonRateLimited, notify.ReasonOf(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("connection closed")
		bus := &fakeBus{CallFunc: func(string, ...interface{}) *dbus.Call {
			return &dbus.Call{Err: cause}
		}}
		c := New(bus, Options{}, nil)
		h, err := c.CreateOverlay("k", "n")
		require.NoError(t, err)

		err = c.CreateNotification(context.Background(), redRequest(h, 1))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, notify.ReasonTransport, notify.ReasonOf(err))

		// a failed send does not burn the ID
		bus.CallFunc = nil
		assert.NoError(t, c.CreateNotification(context.Background(), redRequest(h, 1)))
	})
}

func TestCompositor_Overlays(t *testing.T) {
	c := New(&fakeBus{}, Options{}, nil)

	h1, err := c.CreateOverlay("a", "A")
	require.NoError(t, err)
	h2, err := c.CreateOverlay("b", "B")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, notify.InvalidOverlay, h1)

	_, err = c.CreateOverlay("a", "dup")
	assert.ErrorIs(t, err, ErrOverlayKeyInUse)

	require.NoError(t, c.DestroyOverlay(h1))
	assert.False(t, c.OverlayValid(h1))
	assert.True(t, c.OverlayValid(h2))
	assert.ErrorIs(t, c.DestroyOverlay(h1), notify.ErrInvalidOverlay)
	assert.ErrorIs(t, c.SetOverlayVisible(h1, true), notify.ErrInvalidOverlay)
}

func TestCompositor_WithSubmitter(t *testing.T) {
	bus := &fakeBus{}
	c := New(bus, Options{}, nil)
	h, err := c.CreateOverlay("k", "Test Overlay")
	require.NoError(t, err)

	s := notify.NewSubmitter(c, notify.NewCounter(1), nil)
	pix := []byte{0, 0, 255, 255}
	id, err := s.Submit(context.Background(), h, &pixel.Bitmap{Width: 1, Height: 1, Pix: pix}, "hello", notify.StyleSystem)
	require.NoError(t, err)
	assert.Equal(t, notify.NotificationID(1), id)

	hints := bus.args[0][6].(map[string]dbus.Variant)
	assert.Equal(t, UrgencyCritical, hints[HintUrgency].Value())
	assert.Equal(t, int32(-1), bus.args[0][7])
}

func TestServerInformation(t *testing.T) {
	bus := &fakeBus{CallFunc: func(string, ...interface{}) *dbus.Call {
		return &dbus.Call{Body: []interface{}{"wlx", "galister", "1.0", "1.2"}}
	}}
	c := New(bus, Options{}, nil)

	info, err := c.ServerInformation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{Name: "wlx", Vendor: "galister", Version: "1.0", SpecVersion: "1.2"}, info)
	assert.Equal(t, []string{DBusInterface + ".GetServerInformation"}, bus.methods)
}

func TestExpireTimeout(t *testing.T) {
	assert.Equal(t, int32(-1), expireTimeout(0))
	assert.Equal(t, int32(1500), expireTimeout(1500*time.Millisecond))
	assert.Equal(t, int32(2147483647), expireTimeout(1000*time.Hour))
}
