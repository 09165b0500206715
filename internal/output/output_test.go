package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/vrnotify/internal/model"
)

func testSubmissions() []model.Submission {
	now := time.Now()
	return []model.Submission{
		{
			ID:             "01HZX0000000000000000000AA",
			Timestamp:      now.Add(-5 * time.Minute).Unix(),
			ImagePath:      "/home/user/boll_alpha.png",
			ImageBytes:     2048,
			SourceFormat:   "rgba32",
			Width:          64,
			Height:         64,
			NotificationID: 7,
			Style:          "application",
			Message:        "This is a test.",
			Outcome:        model.OutcomeShown,
		},
		{
			ID:        "01HZX0000000000000000000BB",
			Timestamp: now.Add(-2 * time.Hour).Unix(),
			ImagePath: "/tmp/missing.png",
			Style:     "system",
			Message:   "second",
			Outcome:   model.OutcomeFailed,
			Reason:    "not_found",
			Error:     "image not found: /tmp/missing.png",
		},
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testSubmissions()))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)

	assert.True(t, strings.HasPrefix(lines[0], "[1] shown"))
	assert.Contains(t, lines[0], "boll_alpha.png 64x64 rgba32 2.0 kB id=7")
	assert.Contains(t, lines[0], "minutes ago")
	assert.Equal(t, "    This is a test.", lines[1])

	assert.True(t, strings.HasPrefix(lines[2], "[2] failed"))
	assert.Contains(t, lines[2], "hours ago")
	assert.NotContains(t, lines[2], "id=")
	assert.Contains(t, out, "    not_found: image not found")
}

func TestPlainFormatter_Options(t *testing.T) {
	opts := FormatterOptions{MessageMaxLen: 7}
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testSubmissions()[:1]))

	out := buf.String()
	assert.False(t, strings.HasPrefix(out, "[1]"))
	assert.NotContains(t, out, "ago")
	assert.Contains(t, out, "    This...\n")
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}} {{base .Submission.ImagePath}} {{.Size}} {{upper .Submission.Style}}\n"

	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testSubmissions()[:1]))
	assert.Equal(t, "1 boll_alpha.png 2.0 kB APPLICATION\n", buf.String())
}

func TestPlainFormatter_InvalidTemplateFallsBack(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index"

	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testSubmissions()[:1]))
	assert.Contains(t, buf.String(), "[1] shown")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testSubmissions()))

	var decoded []model.Submission
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testSubmissions()[0].ID, decoded[0].ID)
	assert.Equal(t, model.OutcomeFailed, decoded[1].Outcome)

	buf.Reset()
	require.NoError(t, NewJSONFormatter(FormatterOptions{Compact: true}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().Format(&buf, testSubmissions()))

	assert.Contains(t, buf.String(), "image_path: /home/user/boll_alpha.png")

	var decoded []model.Submission
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, uint32(7), decoded[0].NotificationID)
	assert.Equal(t, "not_found", decoded[1].Reason)
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testSubmissions()))
	assert.Equal(t, "01HZX0000000000000000000AA\n01HZX0000000000000000000BB\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &IDsFormatter{}, NewFormatter(FormatIDs, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("bogus", opts))
}

func TestParseFormatType(t *testing.T) {
	f, err := ParseFormatType(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormatType("xml")
	assert.Error(t, err)
}
