package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	cols := DefaultAliases().Columns([]string{" VUID ", "Address", "RegistrationAddress1", "first name", "FirstName"})

	assert.True(t, cols.Recognized())
	assert.Equal(t, []int{0}, cols[FieldID])
	// registrationaddress1 outranks address
	assert.Equal(t, []int{2, 1}, cols[FieldLine1])
	assert.Equal(t, []int{4}, cols[FieldFirstName])
	assert.Empty(t, cols[FieldCity])
}

func TestPickFallsBackToLaterAlias(t *testing.T) {
	cols := DefaultAliases().Columns([]string{"Address", "RegistrationAddress1"})

	assert.Equal(t, "9 Elm", cols.Pick([]string{"9 Elm", "  "}, FieldLine1))
	assert.Equal(t, "1 Oak", cols.Pick([]string{"9 Elm", " 1 Oak "}, FieldLine1))
	assert.Equal(t, "", cols.Pick([]string{"short"}, FieldCity))
	assert.Equal(t, "", cols.Pick([]string{}, FieldLine1))
}

func TestUnrecognizedHeader(t *testing.T) {
	cols := DefaultAliases().Columns([]string{"foo", "bar"})
	assert.False(t, cols.Recognized())
}

func TestNewAliasTable(t *testing.T) {
	table, err := NewAliasTable(map[Field][]string{FieldCity: {" Town ", "town", "CITY"}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, table.Columns([]string{"x", "TOWN"})[FieldCity])

	_, err = NewAliasTable(map[Field][]string{FieldCity: {" "}})
	assert.Error(t, err)
}
