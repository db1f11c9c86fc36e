package domain

import "time"

// Visit represents a badge-in record at a library branch.
// Visits are append-only; they are never updated or deleted.
type Visit struct {
	// ID is the unique identifier for the visit.
	ID string `json:"id"`

	// UserID is the account that checked in.
	UserID string `json:"userId"`

	// StudentID is the campus identifier presented at check-in.
	StudentID string `json:"studentId"`

	// Barcode is the card barcode presented at check-in, if any.
	Barcode string `json:"barcode,omitempty"`

	// Branch is the library branch where the check-in happened.
	Branch string `json:"branch"`

	// EnteredAt is the check-in timestamp.
	EnteredAt time.Time `json:"enteredAt"`
}

// HeatmapBucket is a visit count for one (day-of-week, hour) cell.
// Day of week runs 0-6 with Sunday as 0.
type HeatmapBucket struct {
	DayOfWeek int   `json:"dow"`
	Hour      int   `json:"hour"`
	Count     int64 `json:"count"`
}
