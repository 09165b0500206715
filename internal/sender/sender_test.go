package sender

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/vrnotify/internal/imagefile"
	"github.com/jmylchreest/vrnotify/internal/model"
	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

func writeRedPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "red.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestSend_RedPixelEndToEnd(t *testing.T) {
	rec := notify.NewRecorder()
	h, err := rec.CreateOverlay("key", "Test Overlay")
	require.NoError(t, err)

	hist := &mockHistory{}
	s := New(imagefile.FileDecoder{}, notify.NewSubmitter(rec, notify.NewCounter(1), nil), hist, nil)

	path := writeRedPNG(t)
	res, err := s.Send(context.Background(), Request{
		Overlay: h,
		Path:    path,
		Message: "This is a test.",
		Style:   notify.StyleApplication,
	})
	require.NoError(t, err)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Width)
	assert.Equal(t, 1, last.Height)
	assert.Equal(t, 4, last.BytesPerPixel)
	assert.Equal(t, []byte{0, 0, 255, 255}, last.Pix)
	assert.Equal(t, notify.TypeTransient, last.Type)
	assert.Equal(t, "This is a test.", last.Text)

	assert.Equal(t, last.ID, res.NotificationID)
	assert.Equal(t, 1, res.Width)
	assert.Equal(t, 1, res.Height)

	require.Len(t, hist.appended, 1)
	got := hist.appended[0]
	assert.Equal(t, model.OutcomeShown, got.Outcome)
	assert.Equal(t, path, got.ImagePath)
	assert.Equal(t, uint32(res.NotificationID), got.NotificationID)
	assert.Equal(t, "application", got.Style)
	assert.Greater(t, got.ImageBytes, int64(0))
	assert.NoError(t, got.Validate())
}

func TestSend_InvalidOverlay(t *testing.T) {
	rec := notify.NewRecorder()
	hist := &mockHistory{}
	s := New(imagefile.FileDecoder{}, notify.NewSubmitter(rec, nil, nil), hist, nil)

	res, err := s.Send(context.Background(), Request{
		Overlay: 42,
		Path:    writeRedPNG(t),
		Message: "x",
		Style:   notify.StyleApplication,
	})
	assert.ErrorIs(t, err, notify.ErrInvalidOverlay)
	assert.Nil(t, res)
	assert.Empty(t, rec.Records())

	require.Len(t, hist.appended, 1)
	assert.Equal(t, model.OutcomeFailed, hist.appended[0].Outcome)
	assert.Equal(t, "invalid_overlay", hist.appended[0].Reason)
}

func TestSend_MissingFile(t *testing.T) {
	rec := notify.NewRecorder()
	h, err := rec.CreateOverlay("key", "name")
	require.NoError(t, err)

	hist := &mockHistory{}
	s := New(imagefile.FileDecoder{}, notify.NewSubmitter(rec, nil, nil), hist, nil)

	_, err = s.Send(context.Background(), Request{Overlay: h, Path: filepath.Join(t.TempDir(), "boll_alpha.png")})
	assert.ErrorIs(t, err, imagefile.ErrNotFound)
	assert.Empty(t, rec.Records())

	require.Len(t, hist.appended, 1)
	assert.Equal(t, "not_found", hist.appended[0].Reason)
}

func TestSend_ConvertFailure(t *testing.T) {
	rec := notify.NewRecorder()
	h, err := rec.CreateOverlay("key", "name")
	require.NoError(t, err)

	dec := &mockDecoder{DecodeFunc: func(string) (pixel.Raster, error) {
		return pixel.Raster{Width: 2, Height: 2, Format: pixel.FormatRGB24, Pix: make([]byte, 5)}, nil
	}}
	hist := &mockHistory{}
	s := New(dec, notify.NewSubmitter(rec, nil, nil), hist, nil)

	_, err = s.Send(context.Background(), Request{Overlay: h, Path: "virtual.png"})
	assert.ErrorIs(t, err, pixel.ErrBufferTooSmall)
	assert.Empty(t, rec.Records())

	require.Len(t, hist.appended, 1)
	assert.Equal(t, "convert", hist.appended[0].Reason)
	assert.Equal(t, "rgb24", hist.appended[0].SourceFormat)
}

func TestSend_Rejected(t *testing.T) {
	rec := notify.NewRecorder()
	rec.Fail = func(*notify.Request) error {
		return notify.Reject(notify.ReasonRateLimited, nil)
	}
	h, err := rec.CreateOverlay("key", "name")
	require.NoError(t, err)

	hist := &mockHistory{}
	s := New(imagefile.FileDecoder{}, notify.NewSubmitter(rec, nil, nil), hist, nil)

	_, err = s.Send(context.Background(), Request{Overlay: h, Path: writeRedPNG(t)})
	assert.ErrorIs(t, err, notify.ErrSubmissionRejected)

	require.Len(t, hist.appended, 1)
	assert.Equal(t, model.OutcomeRejected, hist.appended[0].Outcome)
	assert.Equal(t, "rate_limited", hist.appended[0].Reason)
	assert.Equal(t, 1, hist.appended[0].Width)
}

func TestSend_HistoryFailureDoesNotMaskResult(t *testing.T) {
	rec := notify.NewRecorder()
	h, err := rec.CreateOverlay("key", "name")
	require.NoError(t, err)

	hist := &mockHistory{AppendFunc: func(model.Submission) error { return errors.New("disk full") }}
	s := New(imagefile.FileDecoder{}, notify.NewSubmitter(rec, nil, nil), hist, nil)

	res, err := s.Send(context.Background(), Request{Overlay: h, Path: writeRedPNG(t)})
	require.NoError(t, err)
	assert.NotZero(t, res.NotificationID)
}

func TestSend_NoHistory(t *testing.T) {
	rec := notify.NewRecorder()
	h, err := rec.CreateOverlay("key", "name")
	require.NoError(t, err)

	s := &Sender{Decoder: imagefile.FileDecoder{}, Submitter: notify.NewSubmitter(rec, nil, nil)}
	res, err := s.Send(context.Background(), Request{Overlay: h, Path: writeRedPNG(t)})
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, model.OutcomeShown, res.Record.Outcome)
}

func TestWithOverlay(t *testing.T) {
	t.Run("destroys after success", func(t *testing.T) {
		mgr := &mockOverlayManager{}
		var seen notify.OverlayHandle
		err := WithOverlay(mgr, "k", "n", nil, func(h notify.OverlayHandle) error {
			seen = h
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, notify.OverlayHandle(1), seen)
		assert.Equal(t, []notify.OverlayHandle{1}, mgr.destroyed)
	})

	t.Run("destroys after failure and keeps the first error", func(t *testing.T) {
		fnErr := errors.New("send failed")
		mgr := &mockOverlayManager{DestroyOverlayFunc: func(notify.OverlayHandle) error {
			return errors.New("destroy failed")
		}}
		err := WithOverlay(mgr, "k", "n", nil, func(notify.OverlayHandle) error { return fnErr })
		assert.ErrorIs(t, err, fnErr)
		assert.Len(t, mgr.destroyed, 1)
	})

	t.Run("reports destroy failure", func(t *testing.T) {
		mgr := &mockOverlayManager{DestroyOverlayFunc: func(notify.OverlayHandle) error {
			return errors.New("destroy failed")
		}}
		err := WithOverlay(mgr, "k", "n", nil, func(notify.OverlayHandle) error { return nil })
		assert.ErrorContains(t, err, "destroy failed")
	})

	t.Run("create failure skips fn", func(t *testing.T) {
		mgr := &mockOverlayManager{CreateOverlayFunc: func(string, string) (notify.OverlayHandle, error) {
			return 0, errors.New("no runtime")
		}}
		called := false
		err := WithOverlay(mgr, "k", "n", nil, func(notify.OverlayHandle) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
		assert.Empty(t, mgr.destroyed)
	})
}
