package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is a member's last known canvass outcome. The string value is the
// wire form used by the field app and stored as-is.
type Status string

const (
	StatusUnvisited    Status = "Unvisited"
	StatusSurveyed     Status = "Surveyed"
	StatusNotHome      Status = "Not Home"
	StatusRefused      Status = "Refused"
	StatusWrongAddress Status = "Wrong Address"
	StatusMoved        Status = "Moved"
)

var statusAliases = map[string]Status{
	"unvisited":     StatusUnvisited,
	"surveyed":      StatusSurveyed,
	"not home":      StatusNotHome,
	"nothome":       StatusNotHome,
	"refused":       StatusRefused,
	"wrong address": StatusWrongAddress,
	"wrongaddress":  StatusWrongAddress,
	"moved":         StatusMoved,
}

// ParseStatus accepts wire values case-insensitively, including the compact
// NotHome and WrongAddress forms.
func ParseStatus(raw string) (Status, error) {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// IsVisitOutcome reports whether s may be submitted as a visit result.
// Unvisited is the absence of a visit and is never submitted.
func (s Status) IsVisitOutcome() bool {
	switch s {
	case StatusSurveyed, StatusNotHome, StatusRefused, StatusWrongAddress, StatusMoved:
		return true
	}
	return false
}

// OrUnvisited maps the blank status of legacy rows to Unvisited.
func (s Status) OrUnvisited() Status {
	if strings.TrimSpace(string(s)) == "" {
		return StatusUnvisited
	}
	return s
}

func (s Status) String() string { return string(s) }

// UnmarshalJSON normalizes any accepted spelling to the canonical wire value.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
