package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Address is a member's registration address.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Geo is a WGS84 coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Member is one canvassed individual.
//
// Invariants:
//   - ID is unique and never changes
//   - imports never write LastStatus or LastUpdatedAt on an existing member
//   - Seq is assigned by the store on first insert and strictly increases
type Member struct {
	ID            string     `json:"id"`
	HouseholdID   string     `json:"householdId"`
	FirstName     string     `json:"firstName"`
	MiddleName    string     `json:"middleName,omitempty"`
	LastName      string     `json:"lastName"`
	Address       Address    `json:"address"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	Precinct      string     `json:"precinct,omitempty"`
	County        string     `json:"county,omitempty"`
	Party         string     `json:"party,omitempty"`
	Age           *int       `json:"age,omitempty"`
	Sex           string     `json:"sex,omitempty"`
	LastStatus    Status     `json:"lastStatus"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
	Seq           int64      `json:"seq"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Coordinates returns the registered location when both components are known.
func (m *Member) Coordinates() (Geo, bool) {
	if m.Latitude == nil || m.Longitude == nil {
		return Geo{}, false
	}
	return Geo{Lat: *m.Latitude, Lng: *m.Longitude}, true
}

// VisitEvent is the single current field report for a member.
type VisitEvent struct {
	MemberID       string          `json:"memberId"`
	HouseholdID    string          `json:"householdId"`
	Status         Status          `json:"status"`
	SurveyAnswers  json.RawMessage `json:"surveyAnswers"`
	Notes          string          `json:"notes,omitempty"`
	ClientTime     time.Time       `json:"timestamp"`
	ReceivedAt     time.Time       `json:"receivedAt"`
	DeviceID       string          `json:"deviceId"`
	ClientAgent    string          `json:"clientAgent,omitempty"`
	Geo            Geo             `json:"geo"`
	DistanceMeters int64           `json:"distanceMeters"`
	Suspect        bool            `json:"suspect"`
}

// EventCursor positions an ordered scan over events by (ReceivedAt, MemberID).
type EventCursor struct {
	ReceivedAt time.Time
	MemberID   string
}

// MemberQuery selects members in Seq order.
type MemberQuery struct {
	// Search is matched case-insensitively as a substring of first name,
	// last name, address line 1, city and household id.
	Search   string
	AfterSeq int64
	Limit    int
}

// EventQuery selects events ordered by (ReceivedAt, MemberID).
type EventQuery struct {
	From  *time.Time
	To    *time.Time
	After *EventCursor
	Limit int
}

// EmptyAnswers is stored when a visit carries no survey answers.
var EmptyAnswers = json.RawMessage(`{}`)

// searchSeparator joins the fields of SearchText. Roster values are single
// lines, so a single-line search never matches across two fields.
const searchSeparator = "\n"

// SearchText is the lower-cased form of every searchable field, the value
// persisted engines match a search against.
func (m *Member) SearchText() string {
	return strings.ToLower(strings.Join(m.searchFields(), searchSeparator))
}

func (m *Member) searchFields() []string {
	return []string{m.FirstName, m.LastName, m.Address.Line1, m.Address.City, m.HouseholdID}
}

// Matches reports whether needle (already lower-cased) occurs in one of the
// searchable fields. An empty needle matches every member.
func (m *Member) Matches(needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range m.searchFields() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// SameRoster reports whether m and o carry the same imported roster data.
// Ids, visit progress and timestamps are not compared.
func (m *Member) SameRoster(o *Member) bool {
	return m.HouseholdID == o.HouseholdID &&
		m.FirstName == o.FirstName &&
		m.MiddleName == o.MiddleName &&
		m.LastName == o.LastName &&
		m.Address == o.Address &&
		equalPtr(m.Latitude, o.Latitude) &&
		equalPtr(m.Longitude, o.Longitude) &&
		m.Precinct == o.Precinct &&
		m.County == o.County &&
		m.Party == o.Party &&
		equalPtr(m.Age, o.Age) &&
		m.Sex == o.Sex
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
