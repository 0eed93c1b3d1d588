// Package store defines the persistence surface the core services depend
// on. Tenant Directory and the Attendance Ledger only see these interfaces,
// so any backend that honors them (postgres, in-memory) can sit underneath
// without the calling code changing.
package store

import (
	"context"
	"errors"

	"checkin-service/internal/model"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate")
)

// UserStore persists users. Create must reject duplicate usernames
// globally with ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	ListByAdmin(ctx context.Context, adminID string) ([]model.User, error)
	// SetLocation updates only the location assignment of a single user.
	// Implementations must serialize concurrent calls on the same user.
	SetLocation(ctx context.Context, userID string, locationID *string) error
	Delete(ctx context.Context, id string) error
	// CountAdmins reports how many admin users exist (used by bootstrap).
	CountAdmins(ctx context.Context) (int64, error)
}

// LocationStore persists geofence locations.
type LocationStore interface {
	Create(ctx context.Context, location *model.Location) error
	GetByID(ctx context.Context, id string) (model.Location, error)
	ListByAdmin(ctx context.Context, adminID string) ([]model.Location, error)
	Update(ctx context.Context, location *model.Location) error
	Delete(ctx context.Context, id string) error
}

// RecordStore is the append-only attendance ledger. There is deliberately
// no update or delete: once appended, a record is immutable. List results
// are ordered newest-first.
type RecordStore interface {
	Append(ctx context.Context, record *model.AttendanceRecord) error
	ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	ListByAdmin(ctx context.Context, adminID string) ([]model.AttendanceRecord, error)
}
