package ingest

import (
	"fmt"

	fsstrings "fieldsync/pkg/platform/strings"
)

// Field is a logical roster column.
type Field string

const (
	FieldID          Field = "id"
	FieldHouseholdID Field = "householdId"
	FieldFirstName   Field = "firstName"
	FieldMiddleName  Field = "middleName"
	FieldLastName    Field = "lastName"
	FieldLine1       Field = "line1"
	FieldLine2       Field = "line2"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldZip         Field = "zip"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
	FieldPrecinct    Field = "precinct"
	FieldCounty      Field = "county"
	FieldParty       Field = "party"
	FieldAge         Field = "age"
	FieldSex         Field = "sex"
)

// AliasTable maps each logical field to the ordered header names it may
// appear under. It is built once at startup and never mutated.
type AliasTable struct {
	aliases map[Field][]string
}

// DefaultAliases covers the export formats seen from county voter files and
// the field app's own template.
func DefaultAliases() AliasTable {
	t, err := NewAliasTable(map[Field][]string{
		FieldID:          {"vuid", "id", "memberid"},
		FieldHouseholdID: {"householdid", "hhid"},
		FieldFirstName:   {"firstname"},
		FieldMiddleName:  {"middlename"},
		FieldLastName:    {"lastname"},
		FieldLine1:       {"registrationaddress1", "address1", "address"},
		FieldLine2:       {"registrationaddress2", "address2"},
		FieldCity:        {"registrationaddresscity", "city"},
		FieldState:       {"registrationaddressstate", "state"},
		FieldZip:         {"registrationaddresszip5", "zip", "zip5"},
		FieldLatitude:    {"latitude", "lat"},
		FieldLongitude:   {"longitude", "lng", "lon"},
		FieldPrecinct:    {"precinct"},
		FieldCounty:      {"county"},
		FieldParty:       {"party"},
		FieldAge:         {"age"},
		FieldSex:         {"sex"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// NewAliasTable normalizes alias names (trim, lower-case, de-duplicate).
func NewAliasTable(aliases map[Field][]string) (AliasTable, error) {
	out := make(map[Field][]string, len(aliases))
	for field, names := range aliases {
		norm := fsstrings.DedupeNormalized(names)
		if len(norm) == 0 {
			return AliasTable{}, fmt.Errorf("field %s has no aliases", field)
		}
		out[field] = norm
	}
	return AliasTable{aliases: out}, nil
}

// Columns resolves the table against a header row: for each field, the
// column indexes to consult in alias order.
func (t AliasTable) Columns(header []string) ColumnMap {
	positions := make(map[string][]int, len(header))
	for i, name := range header {
		key := fsstrings.Normalize(name)
		positions[key] = append(positions[key], i)
	}

	cols := make(ColumnMap, len(t.aliases))
	for field, names := range t.aliases {
		for _, name := range names {
			cols[field] = append(cols[field], positions[name]...)
		}
	}
	return cols
}

// ColumnMap is an AliasTable bound to one header.
type ColumnMap map[Field][]int

// Recognized reports whether any field matched a header column.
func (c ColumnMap) Recognized() bool {
	for _, idx := range c {
		if len(idx) > 0 {
			return true
		}
	}
	return false
}

// Pick returns the first non-blank, trimmed value for field in row.
func (c ColumnMap) Pick(row []string, field Field) string {
	for _, i := range c[field] {
		if i < len(row) {
			if v := fsstrings.FirstNonBlank(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}
