package rollup

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"strings"

	dErrors "fieldsync/pkg/domain-errors"
)

// Cursor is the sort position of a household in one sort mode. Pages resume
// strictly after it.
type Cursor struct {
	Mode        Sort   `json:"m"`
	Rank        int    `json:"r"`
	Key         string `json:"k"`
	HouseholdID string `json:"h"`
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode for the given sort mode.
func DecodeCursor(token string, mode Sort) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "malformed cursor")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.HouseholdID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "malformed cursor")
	}
	if c.Mode != mode {
		return nil, dErrors.New(dErrors.CodeValidation, "cursor was issued for sort="+string(c.Mode))
	}
	return &c, nil
}

func (c Cursor) compare(o Cursor) int {
	return cmp.Or(
		cmp.Compare(c.Rank, o.Rank),
		strings.Compare(c.Key, o.Key),
		strings.Compare(c.HouseholdID, o.HouseholdID),
	)
}
