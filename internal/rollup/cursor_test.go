package rollup

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fieldsync/pkg/domain-errors"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Mode: SortStatus, Rank: 1, Key: "Main St", HouseholdID: "12 main st|x|y|z"}

	got, err := DecodeCursor(c.Encode(), SortStatus)
	require.NoError(t, err)
	assert.Equal(t, c, *got)
}

func TestDecodeCursor(t *testing.T) {
	t.Run("blank is no cursor", func(t *testing.T) {
		got, err := DecodeCursor("  ", SortName)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("wrong sort mode", func(t *testing.T) {
		token := Cursor{Mode: SortStreet, HouseholdID: "hh"}.Encode()
		_, err := DecodeCursor(token, SortName)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	for name, token := range map[string]string{
		"not base64":        "%%%",
		"not json":          base64.RawURLEncoding.EncodeToString([]byte("hello")),
		"missing household": base64.RawURLEncoding.EncodeToString([]byte(`{"m":"status"}`)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token, SortStatus)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestCursorOrder(t *testing.T) {
	a := Cursor{Rank: 0, Key: "Zeta", HouseholdID: "z"}
	b := Cursor{Rank: 1, Key: "Alpha", HouseholdID: "a"}
	c := Cursor{Rank: 1, Key: "Alpha", HouseholdID: "b"}

	assert.Negative(t, a.compare(b))
	assert.Negative(t, b.compare(c))
	assert.Zero(t, c.compare(c))
}
