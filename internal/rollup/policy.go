package rollup

import (
	"regexp"
	"slices"

	"fieldsync/internal/canvass/models"
)

// Bucket is the work-queue label of a household.
type Bucket string

const (
	BucketPending Bucket = "Pending"
	BucketDone    Bucket = "Done"
)

// Color is the legacy map pin color of a household.
type Color string

const (
	ColorRed   Color = "Red"
	ColorGreen Color = "Green"
	ColorBlue  Color = "Blue"
	ColorGray  Color = "Gray"
)

// BucketFor is the household bucket policy: any recorded outcome, including
// Not Home, moves the household to Done.
func BucketFor(statuses []models.Status) Bucket {
	for _, s := range statuses {
		if s.OrUnvisited() != models.StatusUnvisited {
			return BucketDone
		}
	}
	return BucketPending
}

// ColorFor is the pin color policy. It is independent of BucketFor.
func ColorFor(statuses []models.Status) Color {
	has := func(s models.Status) bool { return slices.Contains(statuses, s) }
	switch {
	case has(models.StatusRefused) || has(models.StatusWrongAddress) || has(models.StatusMoved):
		return ColorRed
	case has(models.StatusSurveyed):
		return ColorGreen
	case has(models.StatusNotHome):
		return ColorBlue
	default:
		return ColorGray
	}
}

var leadingNumber = regexp.MustCompile(`^\s*\d+\s*(.*)$`)

// StreetName drops the house number from an address line. Lines without a
// leading number are returned unchanged.
func StreetName(line1 string) string {
	if m := leadingNumber.FindStringSubmatch(line1); m != nil {
		return m[1]
	}
	return line1
}
