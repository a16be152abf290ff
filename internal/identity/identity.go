// Package identity derives stable member and household keys for roster rows
// that arrive without them.
//
// Derivation is a fallback: callers use Resolve* so that a supplied id always
// wins over a derived one.
package identity

import (
	"crypto/sha1" //nolint:gosec // id compatibility, not a security boundary
	"encoding/hex"
	"strings"

	fsstrings "fieldsync/pkg/platform/strings"
)

// MemberIDPrefix marks ids derived from name and address.
const MemberIDPrefix = "fv_"

const (
	separator   = "|"
	memberIDHex = 16
)

func normalize(parts ...string) string {
	return fsstrings.NormalizeJoin(separator, parts...)
}

// DeriveMemberID hashes the normalized name and address into an fv_ id.
// Records with every field blank share one id.
func DeriveMemberID(first, last, line1, city, state, zip string) string {
	sum := sha1.Sum([]byte(normalize(first, last, line1, city, state, zip))) //nolint:gosec
	return MemberIDPrefix + hex.EncodeToString(sum[:])[:memberIDHex]
}

// DeriveHouseholdID is the normalized address key itself.
func DeriveHouseholdID(line1, city, state, zip string) string {
	return normalize(line1, city, state, zip)
}

// ResolveMemberID prefers explicit when it is not blank.
func ResolveMemberID(explicit, first, last, line1, city, state, zip string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	return DeriveMemberID(first, last, line1, city, state, zip)
}

// ResolveHouseholdID prefers explicit when it is not blank.
func ResolveHouseholdID(explicit, line1, city, state, zip string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	return DeriveHouseholdID(line1, city, state, zip)
}
