package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold. An admin owns users and locations; a user belongs
// to exactly one admin and checks in against an assigned location.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents the user model stored in the database.
type User struct {
	ID         string         `json:"id" gorm:"type:uuid;primaryKey"`
	Username   string         `json:"username" gorm:"type:varchar(100);uniqueIndex"`
	Password   string         `json:"-" gorm:"type:varchar(255)"`
	Role       string         `json:"role" gorm:"type:varchar(20);not null"`
	AdminID    *string        `json:"adminId,omitempty" gorm:"type:uuid;index"`
	LocationID *string        `json:"locationId,omitempty" gorm:"type:uuid;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
