package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vrnotify/internal/core"
	"github.com/jmylchreest/vrnotify/internal/model"
	"github.com/jmylchreest/vrnotify/internal/output"
	"github.com/jmylchreest/vrnotify/internal/store"
)

var historyOpts struct {
	format   string
	limit    int
	template string
	outcome  string
	filter   string
	since    string
	compact  bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded sends",
	Long: `List recorded sends, newest first.

Examples:
  vrnotify history
  vrnotify history --limit 5 --format json
  vrnotify history --outcome rejected --since 7d
  vrnotify history --filter 'file~shot,width>=512'
  vrnotify history --template '{{.Submission.ImagePath}} {{.Submission.Outcome}}'`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var pruneOpts struct {
	keep   int
	dryRun bool
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old history records",
	Long: `Keep only the newest records in the history file.

Examples:
  vrnotify history prune              # keep history.keep from config
  vrnotify history prune --keep 50
  vrnotify history prune --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", string(output.FormatPlain),
		fmt.Sprintf("Output format (%s)", joinFormats()))
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 20,
		"Maximum records to show (0 = all)")
	historyCmd.Flags().StringVar(&historyOpts.template, "template", "",
		"Go template for plain output")
	historyCmd.Flags().StringVar(&historyOpts.outcome, "outcome", "",
		"Only show records with this outcome (shown, rejected, failed)")
	historyCmd.Flags().StringVar(&historyOpts.filter, "filter", "",
		"Filter expression, e.g. 'outcome!=shown,width>=256'")
	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only show records newer than this (e.g. 1h, 7d, 2w)")
	historyCmd.Flags().BoolVar(&historyOpts.compact, "compact", false,
		"Single-line JSON output")

	historyPruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", 0,
		"Records to keep (default from config)")
	historyPruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without removing")
}

func joinFormats() string {
	names := make([]string, 0, len(output.FormatTypes()))
	for _, f := range output.FormatTypes() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// loadHistory reads the history file regardless of history.enabled.
func loadHistory() (*store.JSONLHistory, []model.Submission, error) {
	h, err := store.NewJSONLHistory(historyPath(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	records, err := h.Load()
	if err != nil {
		_ = h.Close()
		return nil, nil, fmt.Errorf("failed to read history: %w", err)
	}
	return h, records, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormatType(historyOpts.format)
	if err != nil {
		return err
	}

	var want model.Outcome
	if historyOpts.outcome != "" {
		want = model.Outcome(strings.ToLower(historyOpts.outcome))
		if !want.Valid() {
			return fmt.Errorf("invalid outcome %q", historyOpts.outcome)
		}
	}
	since, err := core.ParseDuration(historyOpts.since)
	if err != nil {
		return err
	}
	expr, err := core.ParseFilter(historyOpts.filter)
	if err != nil {
		return err
	}

	h, records, err := loadHistory()
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	records = core.Filter(records, core.FilterOptions{Since: since, Outcome: want})
	records = core.FilterWithExpr(records, expr)
	records = store.Newest(records, historyOpts.limit)

	opts := output.DefaultFormatterOptions()
	opts.Template = historyOpts.template
	opts.Compact = historyOpts.compact

	return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), records)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	keep := pruneOpts.keep
	if keep <= 0 {
		keep = cfg.History.Keep
	}
	if keep <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "history.keep is 0, nothing to prune")
		return nil
	}

	h, records, err := loadHistory()
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if pruneOpts.dryRun {
		n := max(len(records)-keep, 0)
		fmt.Fprintf(cmd.OutOrStdout(), "Would remove %d of %d records (keeping %d)\n", n, len(records), keep)
		return nil
	}

	removed, err := store.Prune(h, keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d records, %d remaining\n", removed, len(records)-removed)
	return nil
}

var showFormat string

var historyShowCmd = &cobra.Command{
	Use:   "show ID|INDEX",
	Short: "Show one history record",
	Long: `Show one record by ID (or a unique ID prefix) or by its 1-based index in
the newest-first listing.

Examples:
  vrnotify history show 1
  vrnotify history show 01HZX0A1`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyShowCmd.Flags().StringVarP(&showFormat, "format", "f", string(output.FormatYAML),
		fmt.Sprintf("Output format (%s)", joinFormats()))
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormatType(showFormat)
	if err != nil {
		return err
	}

	h, records, err := loadHistory()
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	records = store.Newest(records, 0)

	var rec *model.Submission
	if idx, convErr := strconv.Atoi(args[0]); convErr == nil {
		if rec = core.LookupByIndex(records, idx); rec == nil {
			return fmt.Errorf("index %d out of range (1-%d)", idx, len(records))
		}
	} else {
		if rec, err = core.LookupByID(records, args[0]); err != nil {
			return err
		}
	}

	opts := output.DefaultFormatterOptions()
	opts.MessageMaxLen = 0
	return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), []model.Submission{*rec})
}
