package notify

import (
	"context"
	"fmt"
	"sync"
)

// Recorded is a notification captured by a Recorder. Pix is a private copy
// of the submitted buffer.
type Recorded struct {
	Overlay       OverlayHandle
	UserValue     uint64
	Type          Type
	Text          string
	Style         Style
	ID            NotificationID
	Width         int
	Height        int
	BytesPerPixel int
	Pix           []byte
}

// Recorder is an in-memory Compositor and OverlayManager. It backs the
// --dry-run mode and stands in for a real compositor in tests.
type Recorder struct {
	mu       sync.Mutex
	next     OverlayHandle
	overlays map[OverlayHandle]string
	seen     map[NotificationID]bool
	records  []Recorded

	// Fail, when set, is consulted before a request is recorded. A non-nil
	// return value is handed back to the submitter unchanged.
	Fail func(req *Request) error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		overlays: make(map[OverlayHandle]string),
		seen:     make(map[NotificationID]bool),
	}
}

// CreateOverlay implements OverlayManager.
func (r *Recorder) CreateOverlay(key, name string) (OverlayHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, k := range r.overlays {
		if k == key {
			return InvalidOverlay, fmt.Errorf("overlay key %q already in use by %d", key, h)
		}
	}
	r.next++
	r.overlays[r.next] = key
	return r.next, nil
}

// DestroyOverlay implements OverlayManager.
func (r *Recorder) DestroyOverlay(h OverlayHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overlays[h]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidOverlay, h)
	}
	delete(r.overlays, h)
	return nil
}

// OverlayValid implements Compositor.
func (r *Recorder) OverlayValid(h OverlayHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.overlays[h]
	return ok
}

// CreateNotification implements Compositor.
func (r *Recorder) CreateNotification(ctx context.Context, req *Request) error {
	if err := ctx.Err(); err != nil {
		return Reject(ReasonTransport, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.overlays[req.Overlay]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidOverlay, req.Overlay)
	}
	if r.seen[req.ID] {
		return Reject(ReasonDuplicateID, fmt.Errorf("id %d already shown", req.ID))
	}
	if r.Fail != nil {
		if err := r.Fail(req); err != nil {
			return err
		}
	}

	rec := Recorded{
		Overlay:   req.Overlay,
		UserValue: req.UserValue,
		Type:      req.Type,
		Text:      req.Text,
		Style:     req.Style,
		ID:        req.ID,
	}
	if b := req.Bitmap; b != nil {
		rec.Width, rec.Height, rec.BytesPerPixel = b.Width, b.Height, b.BytesPerPixel
		rec.Pix = append([]byte(nil), b.Pix...)
	}
	r.seen[req.ID] = true
	r.records = append(r.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.records))
	copy(out, r.records)
	return out
}

// Last returns the most recent record.
func (r *Recorder) Last() (Recorded, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return Recorded{}, false
	}
	return r.records[len(r.records)-1], true
}
