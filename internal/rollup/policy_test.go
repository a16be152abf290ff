package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldsync/internal/canvass/models"
)

func statuses(s ...models.Status) []models.Status { return s }

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name string
		set  []models.Status
		want Bucket
	}{
		{name: "no statuses", set: nil, want: BucketPending},
		{name: "all unvisited", set: statuses(models.StatusUnvisited), want: BucketPending},
		{name: "blank legacy status", set: statuses(""), want: BucketPending},
		{name: "one surveyed", set: statuses(models.StatusUnvisited, models.StatusSurveyed), want: BucketDone},
		{name: "not home counts as an outcome", set: statuses(models.StatusNotHome), want: BucketDone},
		{name: "moved", set: statuses(models.StatusMoved), want: BucketDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(tt.set))
		})
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		name string
		set  []models.Status
		want Color
	}{
		{name: "refused wins over surveyed", set: statuses(models.StatusSurveyed, models.StatusRefused), want: ColorRed},
		{name: "wrong address", set: statuses(models.StatusWrongAddress), want: ColorRed},
		{name: "moved", set: statuses(models.StatusUnvisited, models.StatusMoved), want: ColorRed},
		{name: "surveyed wins over not home", set: statuses(models.StatusNotHome, models.StatusSurveyed), want: ColorGreen},
		{name: "not home", set: statuses(models.StatusNotHome, models.StatusUnvisited), want: ColorBlue},
		{name: "unvisited", set: statuses(models.StatusUnvisited), want: ColorGray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorFor(tt.set))
		})
	}
}

func TestStreetName(t *testing.T) {
	tests := map[string]string{
		"123 Main St":     "Main St",
		"  42   Oak Ave ": "Oak Ave ",
		"9B Elm":          "B Elm",
		"Rural Route 5":   "Rural Route 5",
		"77":              "",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StreetName(in), "StreetName(%q)", in)
	}
}
