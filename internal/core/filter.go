// Package core provides filtering and lookup over submission history.
package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// Operators longest first so "!=" is not read as "=".
var operators = []FilterOp{
	FilterOpNotEqual,
	FilterOpGreaterEq,
	FilterOpLessEq,
	FilterOpRegex,
	FilterOpEqual,
	FilterOpContains,
	FilterOpGreater,
	FilterOpLess,
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindTime
)

// fields maps accepted names to canonical field names and kinds.
var fields = map[string]struct {
	name string
	kind fieldKind
}{
	"path":    {"path", kindString},
	"file":    {"file", kindString},
	"name":    {"file", kindString},
	"format":  {"format", kindString},
	"outcome": {"outcome", kindString},
	"reason":  {"reason", kindString},
	"style":   {"style", kindString},
	"message": {"message", kindString},
	"msg":     {"message", kindString},
	"width":   {"width", kindInt},
	"w":       {"width", kindInt},
	"height":  {"height", kindInt},
	"h":       {"height", kindInt},
	"bytes":   {"bytes", kindInt},
	"size":    {"bytes", kindInt},
	"time":    {"time", kindTime},
	"ts":      {"time", kindTime},
	"age":     {"time", kindTime},
}

// FilterCondition is a single field comparison.
type FilterCondition struct {
	Field    string
	Operator FilterOp
	Value    string

	kind    fieldKind
	regex   *regexp.Regexp
	intVal  int64
	timeVal time.Time
}

// FilterExpr is a list of conditions that must all match.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions holds the simple filters exposed as flags.
type FilterOptions struct {
	Since   time.Duration // Only records newer than now-Since (0 = all)
	Outcome model.Outcome // Exact outcome ("" = any)
}

// Filter returns the records matching opts, preserving order.
func Filter(records []model.Submission, opts FilterOptions) []model.Submission {
	var cutoff int64
	if opts.Since > 0 {
		cutoff = time.Now().Add(-opts.Since).Unix()
	}

	result := make([]model.Submission, 0, len(records))
	for _, r := range records {
		if cutoff > 0 && r.Timestamp < cutoff {
			continue
		}
		if opts.Outcome != "" && r.Outcome != opts.Outcome {
			continue
		}
		result = append(result, r)
	}
	return result
}

// ParseDuration parses a duration, also accepting day (7d) and week (2w)
// suffixes. "0" and "" mean no limit.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "" {
		return 0, nil
	}

	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if numStr, found := strings.CutSuffix(s, suffix); found {
			n, err := strconv.Atoi(numStr)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			return time.Duration(n) * unit, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParseFilter parses a comma separated list of conditions such as
// "outcome=rejected,width>=256,file~shot,time<1h".
//
// Time conditions compare against now minus the given age, so "time>1h"
// selects records newer than an hour.
func ParseFilter(expr string) (*FilterExpr, error) {
	f := &FilterExpr{}
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, cond)
	}
	return f, nil
}

func parseCondition(s string) (FilterCondition, error) {
	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}
	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

func (c *FilterCondition) init() error {
	f, ok := fields[c.Field]
	if !ok {
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}
	c.Field, c.kind = f.name, f.kind

	switch c.kind {
	case kindString:
		switch c.Operator {
		case FilterOpEqual, FilterOpNotEqual, FilterOpContains:
		case FilterOpRegex:
			re, err := regexp.Compile(c.Value)
			if err != nil {
				return fmt.Errorf("invalid regex: %w", err)
			}
			c.regex = re
		default:
			return fmt.Errorf("operator %s not supported for %s", c.Operator, c.Field)
		}
	case kindInt:
		if c.Operator == FilterOpContains || c.Operator == FilterOpRegex {
			return fmt.Errorf("operator %s not supported for %s", c.Operator, c.Field)
		}
		n, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", c.Field, c.Value)
		}
		c.intVal = n
	case kindTime:
		switch c.Operator {
		case FilterOpGreater, FilterOpLess, FilterOpGreaterEq, FilterOpLessEq:
		default:
			return fmt.Errorf("operator %s not supported for %s", c.Operator, c.Field)
		}
		d, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid time value: %w", err)
		}
		c.timeVal = time.Now().Add(-d)
	}
	return nil
}

// Match reports whether r satisfies every condition.
func (f *FilterExpr) Match(r model.Submission) bool {
	for i := range f.Conditions {
		if !f.Conditions[i].Match(r) {
			return false
		}
	}
	return true
}

// Match reports whether r satisfies this condition.
func (c *FilterCondition) Match(r model.Submission) bool {
	switch c.Field {
	case "path":
		return c.matchString(r.ImagePath)
	case "file":
		return c.matchString(filepath.Base(r.ImagePath))
	case "format":
		return c.matchString(r.SourceFormat)
	case "outcome":
		return c.matchString(string(r.Outcome))
	case "reason":
		return c.matchString(r.Reason)
	case "style":
		return c.matchString(r.Style)
	case "message":
		return c.matchString(r.Message)
	case "width":
		return c.matchInt(int64(r.Width))
	case "height":
		return c.matchInt(int64(r.Height))
	case "bytes":
		return c.matchInt(r.ImageBytes)
	case "time":
		return c.matchTime(r.TimestampTime())
	default:
		return false
	}
}

func (c *FilterCondition) matchString(v string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return strings.EqualFold(v, c.Value)
	case FilterOpNotEqual:
		return !strings.EqualFold(v, c.Value)
	case FilterOpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(v)
	default:
		return false
	}
}

func (c *FilterCondition) matchInt(v int64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.intVal
	case FilterOpNotEqual:
		return v != c.intVal
	case FilterOpGreater:
		return v > c.intVal
	case FilterOpLess:
		return v < c.intVal
	case FilterOpGreaterEq:
		return v >= c.intVal
	case FilterOpLessEq:
		return v <= c.intVal
	default:
		return false
	}
}

// matchTime compares the record time against the cutoff. A newer record is
// "greater".
func (c *FilterCondition) matchTime(v time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return v.After(c.timeVal)
	case FilterOpLess:
		return v.Before(c.timeVal)
	case FilterOpGreaterEq:
		return !v.Before(c.timeVal)
	case FilterOpLessEq:
		return !v.After(c.timeVal)
	default:
		return false
	}
}

// FilterWithExpr returns the records matching expr. A nil or empty
// expression matches everything.
func FilterWithExpr(records []model.Submission, expr *FilterExpr) []model.Submission {
	if expr == nil || len(expr.Conditions) == 0 {
		return records
	}
	result := make([]model.Submission, 0, len(records))
	for _, r := range records {
		if expr.Match(r) {
			result = append(result, r)
		}
	}
	return result
}
