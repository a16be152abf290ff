package handler

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/visits"
	dErrors "fieldsync/pkg/domain-errors"
)

// MaxNotesLength is the longest accepted notes field, in characters.
const MaxNotesLength = 2000

// GeoInput is the submitted device location. Pointers distinguish a missing
// component from 0.
type GeoInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// SubmitVisitRequest is the body of POST /api/events. Older field app builds
// send the member id as "vuid".
type SubmitVisitRequest struct {
	MemberID      string          `json:"memberId"`
	VUID          string          `json:"vuid"`
	HouseholdID   string          `json:"householdId"`
	Status        string          `json:"status"`
	SurveyAnswers json.RawMessage `json:"surveyAnswers"`
	Notes         string          `json:"notes"`
	Timestamp     string          `json:"timestamp"`
	DeviceID      string          `json:"deviceId"`
	Geo           *GeoInput       `json:"geo"`

	status     models.Status
	clientTime time.Time
}

// Normalize trims identifiers and folds the legacy vuid into MemberID.
func (r *SubmitVisitRequest) Normalize() {
	if r == nil {
		return
	}
	r.MemberID = strings.TrimSpace(r.MemberID)
	if r.MemberID == "" {
		r.MemberID = strings.TrimSpace(r.VUID)
	}
	r.HouseholdID = strings.TrimSpace(r.HouseholdID)
	r.DeviceID = strings.TrimSpace(r.DeviceID)
	r.Status = strings.TrimSpace(r.Status)
	r.Timestamp = strings.TrimSpace(r.Timestamp)
}

// Validate normalizes the request and checks every field.
func (r *SubmitVisitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Normalize()

	if r.MemberID == "" {
		return dErrors.New(dErrors.CodeValidation, "memberId is required")
	}
	if r.HouseholdID == "" {
		return dErrors.New(dErrors.CodeValidation, "householdId is required")
	}
	if r.DeviceID == "" {
		return dErrors.New(dErrors.CodeValidation, "deviceId is required")
	}

	status, err := models.ParseStatus(r.Status)
	if err != nil || !status.IsVisitOutcome() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of Surveyed, Not Home, Refused, Wrong Address, Moved")
	}
	r.status = status

	if r.Timestamp == "" {
		return dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "timestamp must be RFC3339")
	}
	r.clientTime = ts

	if r.Geo == nil || r.Geo.Lat == nil || r.Geo.Lng == nil {
		return dErrors.New(dErrors.CodeValidation, "geo.lat and geo.lng are required")
	}
	if *r.Geo.Lat < -90 || *r.Geo.Lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "geo.lat must be between -90 and 90")
	}
	if *r.Geo.Lng < -180 || *r.Geo.Lng > 180 {
		return dErrors.New(dErrors.CodeValidation, "geo.lng must be between -180 and 180")
	}

	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 2000 characters")
	}

	answers := bytes.TrimSpace(r.SurveyAnswers)
	if len(answers) > 0 && !bytes.Equal(answers, []byte("null")) && answers[0] != '{' {
		return dErrors.New(dErrors.CodeValidation, "surveyAnswers must be an object")
	}
	return nil
}

// Submission converts a validated request.
func (r *SubmitVisitRequest) Submission() visits.Submission {
	return visits.Submission{
		MemberID:      r.MemberID,
		HouseholdID:   r.HouseholdID,
		Status:        r.status,
		SurveyAnswers: r.SurveyAnswers,
		Notes:         r.Notes,
		ClientTime:    r.clientTime,
		DeviceID:      r.DeviceID,
		Geo:           models.Geo{Lat: *r.Geo.Lat, Lng: *r.Geo.Lng},
	}
}

// SubmitVisitResponse is returned for accepted submissions.
type SubmitVisitResponse struct {
	OK             bool  `json:"ok"`
	Upserted       bool  `json:"upserted"`
	Suspect        bool  `json:"suspect"`
	DistanceMeters int64 `json:"distanceMeters"`
}

// IgnoredVisitResponse is returned for stale submissions.
type IgnoredVisitResponse struct {
	OK      bool   `json:"ok"`
	Ignored bool   `json:"ignored"`
	Message string `json:"message"`
}

// CurrentVisitResponse wraps a member's current event.
type CurrentVisitResponse struct {
	OK    bool               `json:"ok"`
	Event *models.VisitEvent `json:"event"`
}
