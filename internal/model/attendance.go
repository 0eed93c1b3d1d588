package model

import "time"

// Check-in outcomes. A failed geofence check is a recorded outcome, not a
// call error, so both statuses live in the ledger.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// AttendanceRecord is one append-only ledger entry for a check-in attempt.
// LocationID and AdminID are snapshots taken at write time: later
// reassignment of the user or deletion of the user/location never rewrites
// history. Timestamp is server-assigned unix seconds.
type AttendanceRecord struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string    `json:"userId" gorm:"type:uuid;index;not null"`
	LocationID   string    `json:"locationId" gorm:"type:uuid;not null"`
	AdminID      string    `json:"adminId" gorm:"type:uuid;index;not null"`
	Latitude     float64   `json:"latitude" gorm:"not null"`
	Longitude    float64   `json:"longitude" gorm:"not null"`
	Timestamp    int64     `json:"timestamp" gorm:"not null"`
	Status       string    `json:"status" gorm:"type:varchar(20);not null"`
	ErrorMessage *string   `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}
