// Package memory is an in-memory store backend. It backs local runs
// (DB_DRIVER=memory) and the service tests. Each entity family has its own
// lock, so check-ins by different users only contend for the brief ledger
// append and reads run fully concurrently.
package memory

import (
	"context"
	"sync"

	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// Store holds all three entity families. The zero value is not usable; use
// New.
type Store struct {
	usersMu sync.RWMutex
	users   map[string]model.User

	locationsMu sync.RWMutex
	locations   map[string]model.Location

	recordsMu sync.RWMutex
	records   []model.AttendanceRecord
}

func New() *Store {
	return &Store{
		users:     make(map[string]model.User),
		locations: make(map[string]model.Location),
	}
}

// Users returns the user store view.
func (s *Store) Users() store.UserStore { return (*userStore)(s) }

// Locations returns the location store view.
func (s *Store) Locations() store.LocationStore { return (*locationStore)(s) }

// Records returns the attendance ledger view.
func (s *Store) Records() store.RecordStore { return (*recordStore)(s) }

type userStore Store

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return store.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *userStore) ListByAdmin(ctx context.Context, adminID string) ([]model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	var users []model.User
	for _, user := range s.users {
		if user.AdminID != nil && *user.AdminID == adminID {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *userStore) SetLocation(ctx context.Context, userID string, locationID *string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.LocationID = locationID
	s.users[userID] = user
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userStore) CountAdmins(ctx context.Context) (int64, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	var count int64
	for _, user := range s.users {
		if user.Role == model.RoleAdmin {
			count++
		}
	}
	return count, nil
}

type locationStore Store

func (s *locationStore) Create(ctx context.Context, location *model.Location) error {
	s.locationsMu.Lock()
	defer s.locationsMu.Unlock()

	s.locations[location.ID] = *location
	return nil
}

func (s *locationStore) GetByID(ctx context.Context, id string) (model.Location, error) {
	s.locationsMu.RLock()
	defer s.locationsMu.RUnlock()

	location, ok := s.locations[id]
	if !ok {
		return model.Location{}, store.ErrNotFound
	}
	return location, nil
}

func (s *locationStore) ListByAdmin(ctx context.Context, adminID string) ([]model.Location, error) {
	s.locationsMu.RLock()
	defer s.locationsMu.RUnlock()

	var locations []model.Location
	for _, location := range s.locations {
		if location.AdminID == adminID {
			locations = append(locations, location)
		}
	}
	return locations, nil
}

func (s *locationStore) Update(ctx context.Context, location *model.Location) error {
	s.locationsMu.Lock()
	defer s.locationsMu.Unlock()

	if _, ok := s.locations[location.ID]; !ok {
		return store.ErrNotFound
	}
	s.locations[location.ID] = *location
	return nil
}

func (s *locationStore) Delete(ctx context.Context, id string) error {
	s.locationsMu.Lock()
	defer s.locationsMu.Unlock()

	if _, ok := s.locations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.locations, id)
	return nil
}

type recordStore Store

func (s *recordStore) Append(ctx context.Context, record *model.AttendanceRecord) error {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()

	s.records = append(s.records, *record)
	return nil
}

func (s *recordStore) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()

	var records []model.AttendanceRecord
	// Append order is chronological; walk backwards for newest-first.
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			records = append(records, s.records[i])
		}
	}
	return records, nil
}

func (s *recordStore) ListByAdmin(ctx context.Context, adminID string) ([]model.AttendanceRecord, error) {
	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()

	var records []model.AttendanceRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].AdminID == adminID {
			records = append(records, s.records[i])
		}
	}
	return records, nil
}
