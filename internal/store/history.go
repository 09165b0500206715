// Package store persists the submission history as a JSONL file.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// SchemaVersion is the current history file schema version.
const SchemaVersion = 1

// ErrHistoryClosed is returned when operations are attempted on a closed history.
var ErrHistoryClosed = errors.New("history is closed")

// History stores submission records.
type History interface {
	// Load reads all records in the order they were appended.
	Load() ([]model.Submission, error)

	// Append adds a record.
	Append(s model.Submission) error

	// Rewrite replaces the stored records.
	Rewrite(ss []model.Submission) error

	// Close releases file handles.
	Close() error
}

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	SchemaVersion int   `json:"vrnotify_schema_version"`
	CreatedAt     int64 `json:"created_at"`
}

// JSONLHistory implements History on a JSONL file.
type JSONLHistory struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *slog.Logger
	closed bool
}

// NewJSONLHistory opens the history at path, creating it and its parent
// directory if needed.
func NewJSONLHistory(path string, logger *slog.Logger) (*JSONLHistory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	h := &JSONLHistory{
		path:   path,
		file:   file,
		logger: logger,
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if info.Size() == 0 {
		if err := h.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return h, nil
}

// Path returns the history file path.
func (h *JSONLHistory) Path() string {
	return h.path
}

func (h *JSONLHistory) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	_, err = h.file.Write(append(data, '\n'))
	return err
}

// Load implements History. Malformed lines are skipped.
func (h *JSONLHistory) Load() ([]model.Submission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.file == nil {
		return nil, ErrHistoryClosed
	}

	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", h.path, err)
	}

	var records []model.Submission
	scanner := bufio.NewScanner(h.file)
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.SchemaVersion > 0 {
				if header.SchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.SchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var s model.Submission
		if err := json.Unmarshal(line, &s); err != nil || s.ID == "" {
			h.logger.Debug("skipping malformed history line", "file", h.path, "line", lineNum)
			continue
		}
		records = append(records, s)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("error reading file: %w", err)
	}

	if _, err := h.file.Seek(0, io.SeekEnd); err != nil {
		return records, err
	}

	return records, nil
}

// Append implements History.
func (h *JSONLHistory) Append(s model.Submission) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid submission: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.file == nil {
		return ErrHistoryClosed
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if _, err := h.file.Write(append(data, '\n')); err != nil {
		return err
	}

	return h.file.Sync()
}

// Rewrite implements History. The previous file is kept as path.bak until
// the new one is written.
func (h *JSONLHistory) Rewrite(ss []model.Submission) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}

	if h.file != nil {
		if err := h.file.Close(); err != nil {
			return err
		}
		h.file = nil
	}

	backupPath := h.path + ".bak"
	if err := os.Rename(h.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(h.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0600)
	if err != nil {
		_ = os.Rename(backupPath, h.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	h.file = file

	if err := h.writeHeader(); err != nil {
		return err
	}

	for _, s := range ss {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := h.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if err := h.file.Sync(); err != nil {
		return err
	}

	_ = os.Remove(backupPath)
	return nil
}

// Close implements History.
func (h *JSONLHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.file != nil {
		err := h.file.Close()
		h.file = nil
		return err
	}
	return nil
}

// Prune keeps only the newest keep records and returns how many were
// removed. keep <= 0 removes nothing.
func Prune(h History, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	records, err := h.Load()
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}

	removed := len(records) - keep
	if err := h.Rewrite(records[removed:]); err != nil {
		return 0, err
	}
	return removed, nil
}

// Newest returns up to limit records, newest first. limit <= 0 means all.
// The input slice is not reordered.
func Newest(records []model.Submission, limit int) []model.Submission {
	out := make([]model.Submission, len(records))
	copy(out, records)

	// Appended order breaks timestamp ties, so reverse first and sort stably.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
