package core

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// LookupByID finds a record by its full ID or a unique case-insensitive
// prefix of it.
func LookupByID(records []model.Submission, id string) (*model.Submission, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("empty id")
	}

	var match *model.Submission
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
		if strings.HasPrefix(records[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous", id)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no record with id %q", id)
	}
	return match, nil
}

// LookupByIndex finds a record by 1-based index. Returns nil if out of range.
func LookupByIndex(records []model.Submission, index int) *model.Submission {
	idx := index - 1
	if idx < 0 || idx >= len(records) {
		return nil
	}
	return &records[idx]
}
