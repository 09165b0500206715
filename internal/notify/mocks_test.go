package notify

import "context"

type mockCompositor struct {
	OverlayValidFunc       func(h OverlayHandle) bool
	CreateNotificationFunc func(ctx context.Context, req *Request) error

	calls int
}

func (m *mockCompositor) OverlayValid(h OverlayHandle) bool {
	if m.OverlayValidFunc != nil {
		return m.OverlayValidFunc(h)
	}
	return true
}

func (m *mockCompositor) CreateNotification(ctx context.Context, req *Request) error {
	m.calls++
	if m.CreateNotificationFunc != nil {
		return m.CreateNotificationFunc(ctx, req)
	}
	return nil
}
