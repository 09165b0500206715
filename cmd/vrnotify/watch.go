package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/sender"
	"github.com/jmylchreest/vrnotify/internal/watch"
)

var watchOpts struct {
	message string
	style   string
	dryRun  bool
	settle  time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Show every image written to a directory",
	Long: `Watch DIR and show each image file created or rewritten in it as a
notification, once the file has stopped changing.

One overlay is held for the lifetime of the command. Press Ctrl+C to stop.

Examples:
  vrnotify watch ~/Pictures/Screenshots
  vrnotify watch --settle 1s -m "New capture" /tmp/captures`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.message, "message", "m", "",
		"Notification text (default from config)")
	watchCmd.Flags().StringVar(&watchOpts.style, "style", "",
		"Notification style: application, system, none (default from config)")
	watchCmd.Flags().BoolVar(&watchOpts.dryRun, "dry-run", false,
		"Submit to an in-memory recorder instead of the session bus")
	watchCmd.Flags().DurationVar(&watchOpts.settle, "settle", 0,
		"Quiet period before a changed file is sent (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	style, err := resolveStyle(watchOpts.style)
	if err != nil {
		return err
	}
	message := watchOpts.message
	if !cmd.Flags().Changed("message") {
		message = cfg.Notification.Message
	}
	settle := watchOpts.settle
	if settle <= 0 {
		settle = cfg.Watch.Settle.Duration()
	}

	history, err := openHistory()
	if err != nil {
		return err
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	b, closeBackend, err := openBackend(ctx, watchOpts.dryRun)
	if err != nil {
		return err
	}
	defer func() { _ = closeBackend() }()

	s, err := newSender(b, history)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return sender.WithOverlay(b, cfg.Overlay.Key, cfg.Overlay.Name, logger, func(h notify.OverlayHandle) error {
		w := watch.New(dir, cfg.Watch.Extensions, settle, logger)
		w.SetHandler(func(ctx context.Context, path string) {
			res, err := s.Send(ctx, sender.Request{
				Overlay: h,
				Path:    path,
				Message: message,
				Style:   style,
			})
			if err != nil {
				logger.Error("send failed", "path", path, "error", err)
				return
			}
			fmt.Fprintf(out, "%s: notification %d (%dx%d %s)\n",
				path, res.NotificationID, res.Width, res.Height, res.SourceFormat)
		})

		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", dir)
		return w.Run(ctx)
	})
}
