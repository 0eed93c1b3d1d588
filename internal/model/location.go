package model

import (
	"time"

	"gorm.io/gorm"
)

// Location represents a circular geofence owned by an admin. Latitude and
// longitude are WGS-84 decimal degrees, radius is meters.
type Location struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Latitude  float64        `json:"latitude" gorm:"not null"`
	Longitude float64        `json:"longitude" gorm:"not null"`
	Radius    float64        `json:"radius" gorm:"not null"`
	AdminID   string         `json:"adminId" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
