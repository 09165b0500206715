package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/vrnotify/internal/dbus"
	"github.com/jmylchreest/vrnotify/internal/imagefile"
	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/sender"
	"github.com/jmylchreest/vrnotify/internal/store"
)

// backend is a notification runtime that also owns overlays.
type backend interface {
	notify.Compositor
	notify.OverlayManager
}

// openBackend connects to the session bus notification server, or returns an
// in-memory recorder when dryRun is set. The returned close func is never nil.
func openBackend(ctx context.Context, dryRun bool) (backend, func() error, error) {
	if dryRun {
		logger.Debug("dry run, notifications are recorded in memory")
		return notify.NewRecorder(), func() error { return nil }, nil
	}

	comp, err := dbus.Connect(dbus.Options{
		AppName:       cfg.Bus.AppName,
		ExpireTimeout: cfg.Bus.ExpireTimeout.Duration(),
		RateInterval:  cfg.Bus.RateInterval.Duration(),
		RateBurst:     cfg.Bus.RateBurst,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	info, err := comp.ServerInformation(ctx)
	if err != nil {
		_ = comp.Close()
		return nil, nil, fmt.Errorf("no notification server on the session bus: %w", err)
	}
	logger.Debug("notification server",
		"name", info.Name,
		"vendor", info.Vendor,
		"version", info.Version,
		"spec_version", info.SpecVersion,
	)
	return comp, comp.Close, nil
}

// newSender wires a Sender over b using the configured ID source.
func newSender(b backend, history store.History) (*sender.Sender, error) {
	ids, err := notify.NewIDSource(cfg.Notification.IDSource, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, err
	}
	sub := notify.NewSubmitter(b, ids, logger)
	return sender.New(imagefile.FileDecoder{}, sub, history, logger), nil
}

// resolveStyle returns the flag value if set, else the configured style.
func resolveStyle(flag string) (notify.Style, error) {
	if flag == "" {
		flag = cfg.Notification.Style
	}
	return notify.ParseStyle(flag)
}
