package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/sender"
)

var sendOpts struct {
	message     string
	style       string
	overlayKey  string
	overlayName string
	dryRun      bool
	dump        string
}

var sendCmd = &cobra.Command{
	Use:   "send IMAGE",
	Short: "Show an image as a notification",
	Long: `Decode IMAGE, convert it to a packed 32-bit bitmap and show it as a
transient notification on the overlay.

An overlay is created for the duration of the command and destroyed on exit.
The outcome is recorded in the history file unless --no-history is given.

Examples:
  vrnotify send boll_alpha.png
  vrnotify send -m "Build finished" --style system status.png
  vrnotify send --dry-run --dump out.png photo.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.message, "message", "m", "",
		"Notification text (default from config)")
	sendCmd.Flags().StringVar(&sendOpts.style, "style", "",
		"Notification style: application, system, none (default from config)")
	sendCmd.Flags().StringVar(&sendOpts.overlayKey, "overlay-key", "",
		"Overlay key (default from config)")
	sendCmd.Flags().StringVar(&sendOpts.overlayName, "overlay-name", "",
		"Overlay name (default from config)")
	sendCmd.Flags().BoolVar(&sendOpts.dryRun, "dry-run", false,
		"Convert and submit to an in-memory recorder instead of the session bus")
	sendCmd.Flags().StringVar(&sendOpts.dump, "dump", "",
		"Write the submitted bitmap back out as PNG to this path")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	style, err := resolveStyle(sendOpts.style)
	if err != nil {
		return err
	}
	message := sendOpts.message
	if !cmd.Flags().Changed("message") {
		message = cfg.Notification.Message
	}
	key := firstNonEmpty(sendOpts.overlayKey, cfg.Overlay.Key)
	name := firstNonEmpty(sendOpts.overlayName, cfg.Overlay.Name)

	history, err := openHistory()
	if err != nil {
		return err
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	b, closeBackend, err := openBackend(ctx, sendOpts.dryRun)
	if err != nil {
		return err
	}
	defer func() { _ = closeBackend() }()

	s, err := newSender(b, history)
	if err != nil {
		return err
	}

	var res *sender.Result
	err = sender.WithOverlay(b, key, name, logger, func(h notify.OverlayHandle) error {
		var sendErr error
		res, sendErr = s.Send(ctx, sender.Request{
			Overlay: h,
			Path:    path,
			Message: message,
			Style:   style,
		})
		return sendErr
	})
	if err != nil {
		if reason := notify.ReasonOf(err); reason != notify.ReasonUnknown {
			return fmt.Errorf("%s: %w", reason, err)
		}
		return err
	}

	if sendOpts.dump != "" {
		if err := dumpBitmap(res, sendOpts.dump); err != nil {
			return err
		}
	}

	verb := "shown"
	if sendOpts.dryRun {
		verb = "recorded"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s notification %d (%dx%d %s)\n",
		verb, res.NotificationID, res.Width, res.Height, res.SourceFormat)
	return nil
}

// dumpBitmap writes the submitted bitmap as a PNG for inspection.
func dumpBitmap(res *sender.Result, path string) error {
	img, err := res.Bitmap.NRGBA()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	return f.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
