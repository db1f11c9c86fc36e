package domain

import (
	"regexp"
	"time"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Hours is the opening hours entry for one branch on one day of the week.
// Day of week runs 0-6 with Sunday as 0. Exactly one entry exists per
// (branch, day) pair; admin updates upsert.
type Hours struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`

	// Branch is the library branch name.
	Branch string `json:"branch"`

	// DayOfWeek is 0 (Sunday) through 6 (Saturday).
	DayOfWeek int `json:"dayOfWeek"`

	// Open is the opening time in HH:mm.
	Open string `json:"open"`

	// Close is the closing time in HH:mm.
	Close string `json:"close"`

	// CreatedAt is the timestamp when the entry was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the entry was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidClock reports whether s is a valid HH:mm time of day.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ValidDayOfWeek reports whether d is in [0, 6].
func ValidDayOfWeek(d int) bool {
	return d >= 0 && d <= 6
}
