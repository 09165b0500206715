package sender

import (
	"errors"

	"github.com/jmylchreest/vrnotify/internal/model"
	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

type mockDecoder struct {
	DecodeFunc func(path string) (pixel.Raster, error)
}

func (m *mockDecoder) Decode(path string) (pixel.Raster, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(path)
	}
	return pixel.Raster{}, errors.New("not implemented")
}

type mockHistory struct {
	AppendFunc func(s model.Submission) error

	appended []model.Submission
}

func (m *mockHistory) Load() ([]model.Submission, error) {
	return m.appended, nil
}

func (m *mockHistory) Append(s model.Submission) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(s); err != nil {
			return err
		}
	}
	m.appended = append(m.appended, s)
	return nil
}

func (m *mockHistory) Rewrite(ss []model.Submission) error {
	m.appended = ss
	return nil
}

func (m *mockHistory) Close() error { return nil }

type mockOverlayManager struct {
	CreateOverlayFunc  func(key, name string) (notify.OverlayHandle, error)
	DestroyOverlayFunc func(h notify.OverlayHandle) error

	destroyed []notify.OverlayHandle
}

func (m *mockOverlayManager) CreateOverlay(key, name string) (notify.OverlayHandle, error) {
	if m.CreateOverlayFunc != nil {
		return m.CreateOverlayFunc(key, name)
	}
	return 1, nil
}

func (m *mockOverlayManager) DestroyOverlay(h notify.OverlayHandle) error {
	m.destroyed = append(m.destroyed, h)
	if m.DestroyOverlayFunc != nil {
		return m.DestroyOverlayFunc(h)
	}
	return nil
}
