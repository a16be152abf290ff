package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"Surveyed":       StatusSurveyed,
		"not home":       StatusNotHome,
		"NotHome":        StatusNotHome,
		" Wrong Address": StatusWrongAddress,
		"WRONGADDRESS":   StatusWrongAddress,
		"moved":          StatusMoved,
		"Unvisited":      StatusUnvisited,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("Maybe")
	assert.Error(t, err)
}

func TestIsVisitOutcome(t *testing.T) {
	assert.True(t, StatusSurveyed.IsVisitOutcome())
	assert.True(t, StatusNotHome.IsVisitOutcome())
	assert.False(t, StatusUnvisited.IsVisitOutcome())
	assert.False(t, Status("").IsVisitOutcome())
}

func TestStatusUnmarshalJSON(t *testing.T) {
	var body struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"NotHome"}`), &body))
	assert.Equal(t, StatusNotHome, body.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"Gone fishing"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"status":3}`), &body))
}

func TestOrUnvisited(t *testing.T) {
	assert.Equal(t, StatusUnvisited, Status("").OrUnvisited())
	assert.Equal(t, StatusMoved, StatusMoved.OrUnvisited())
}
