// Package postgres implements the store interfaces on gorm. Row-level
// locking comes from postgres itself: single-row updates and inserts are
// serialized per row, reads never block each other.
package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// Store bundles the three gorm-backed stores over one connection.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() store.UserStore         { return &userStore{db: s.db} }
func (s *Store) Locations() store.LocationStore { return &locationStore{db: s.db} }
func (s *Store) Records() store.RecordStore     { return &recordStore{db: s.db} }

type userStore struct {
	db *gorm.DB
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && isDuplicateErr(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *userStore) GetByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, store.ErrNotFound
	}
	return user, err
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, store.ErrNotFound
	}
	return user, err
}

func (s *userStore) ListByAdmin(ctx context.Context, adminID string) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at asc").
		Find(&users).Error
	return users, err
}

func (s *userStore) SetLocation(ctx context.Context, userID string, locationID *string) error {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("location_id", locationID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", model.RoleAdmin).
		Count(&count).Error
	return count, err
}

type locationStore struct {
	db *gorm.DB
}

func (s *locationStore) Create(ctx context.Context, location *model.Location) error {
	return s.db.WithContext(ctx).Create(location).Error
}

func (s *locationStore) GetByID(ctx context.Context, id string) (model.Location, error) {
	var location model.Location
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Location{}, store.ErrNotFound
	}
	return location, err
}

func (s *locationStore) ListByAdmin(ctx context.Context, adminID string) ([]model.Location, error) {
	var locations []model.Location
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at asc").
		Find(&locations).Error
	return locations, err
}

func (s *locationStore) Update(ctx context.Context, location *model.Location) error {
	result := s.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("id = ?", location.ID).
		Updates(map[string]interface{}{
			"name":      location.Name,
			"latitude":  location.Latitude,
			"longitude": location.Longitude,
			"radius":    location.Radius,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *locationStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Location{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type recordStore struct {
	db *gorm.DB
}

func (s *recordStore) Append(ctx context.Context, record *model.AttendanceRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *recordStore) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc, created_at desc").
		Find(&records).Error
	return records, err
}

func (s *recordStore) ListByAdmin(ctx context.Context, adminID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("timestamp desc, created_at desc").
		Find(&records).Error
	return records, err
}

// isDuplicateErr detects a postgres unique constraint violation without
// importing the driver error types (SQLSTATE 23505).
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
