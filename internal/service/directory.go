package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"checkin-service/internal/apperr"
	"checkin-service/internal/geo"
	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// Directory owns users, locations and the admin-scoping relation between
// them. Every operation takes the caller Identity and fails closed on any
// cross-tenant access.
type Directory struct {
	users     store.UserStore
	locations store.LocationStore
}

func NewDirectory(users store.UserStore, locations store.LocationStore) *Directory {
	return &Directory{users: users, locations: locations}
}

// CreateUserRequest carries the fields an admin supplies for a new user.
type CreateUserRequest struct {
	Username string
	Secret   string
	Role     string
}

// CreateUser creates a user owned by the calling admin. A new role=user
// account gets the caller as its owning tenant; a new role=admin account
// starts its own tenant and has no adminId.
func (d *Directory) CreateUser(ctx context.Context, caller Identity, req CreateUserRequest) (model.User, error) {
	if !caller.IsAdmin() {
		return model.User{}, apperr.New(apperr.Forbidden, "only admins can create users")
	}
	if req.Username == "" || req.Secret == "" {
		return model.User{}, apperr.New(apperr.InvalidArgument, "username and password are required")
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		return model.User{}, apperr.Newf(apperr.InvalidArgument, "unknown role %q", req.Role)
	}

	hash, err := HashSecret(req.Secret)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Password: hash,
		Role:     req.Role,
	}
	if req.Role == model.RoleUser {
		adminID := caller.UserID
		user.AdminID = &adminID
	}

	if err := d.users.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.User{}, apperr.Newf(apperr.Conflict, "username %q already exists", req.Username)
		}
		return model.User{}, apperr.Wrap(err, apperr.Internal, "creating user")
	}
	return user, nil
}

// ListUsers returns the users owned by the calling admin.
func (d *Directory) ListUsers(ctx context.Context, caller Identity) ([]model.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "only admins can list users")
	}
	users, err := d.users.ListByAdmin(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, "listing users")
	}
	return users, nil
}

// DeleteUser removes a user owned by the calling admin. The user's
// attendance records stay in the ledger for audit.
func (d *Directory) DeleteUser(ctx context.Context, caller Identity, userID string) error {
	if !caller.IsAdmin() {
		return apperr.New(apperr.Forbidden, "only admins can delete users")
	}
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return apperr.Wrap(err, apperr.Internal, "looking up user")
	}
	if user.AdminID == nil || *user.AdminID != caller.UserID {
		return apperr.New(apperr.Forbidden, "user belongs to another admin")
	}
	if err := d.users.Delete(ctx, userID); err != nil {
		return apperr.Wrap(err, apperr.Internal, "deleting user")
	}
	return nil
}

// CreateLocationRequest carries the fields for a new geofence location.
type CreateLocationRequest struct {
	Name      string
	Latitude  float64
	Longitude float64
	Radius    float64
}

func validateGeofence(lat, lng, radius float64) error {
	if !geo.ValidLatitude(lat) {
		return apperr.Newf(apperr.InvalidArgument, "latitude %v out of range [-90, 90]", lat)
	}
	if !geo.ValidLongitude(lng) {
		return apperr.Newf(apperr.InvalidArgument, "longitude %v out of range [-180, 180]", lng)
	}
	if radius <= 0 {
		return apperr.Newf(apperr.InvalidArgument, "radius %v must be positive", radius)
	}
	return nil
}

// CreateLocation creates a geofence owned by the calling admin.
func (d *Directory) CreateLocation(ctx context.Context, caller Identity, req CreateLocationRequest) (model.Location, error) {
	if !caller.IsAdmin() {
		return model.Location{}, apperr.New(apperr.Forbidden, "only admins can create locations")
	}
	if req.Name == "" {
		return model.Location{}, apperr.New(apperr.InvalidArgument, "location name is required")
	}
	if err := validateGeofence(req.Latitude, req.Longitude, req.Radius); err != nil {
		return model.Location{}, err
	}

	location := model.Location{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		AdminID:   caller.UserID,
	}
	if err := d.locations.Create(ctx, &location); err != nil {
		return model.Location{}, apperr.Wrap(err, apperr.Internal, "creating location")
	}
	return location, nil
}

// UpdateLocationRequest updates a subset of a location's fields; nil
// pointers leave the field unchanged.
type UpdateLocationRequest struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// UpdateLocation applies a partial update to a location owned by the
// calling admin.
func (d *Directory) UpdateLocation(ctx context.Context, caller Identity, locationID string, req UpdateLocationRequest) (model.Location, error) {
	location, err := d.ownedLocation(ctx, caller, locationID)
	if err != nil {
		return model.Location{}, err
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Latitude != nil {
		location.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		location.Longitude = *req.Longitude
	}
	if req.Radius != nil {
		location.Radius = *req.Radius
	}
	if err := validateGeofence(location.Latitude, location.Longitude, location.Radius); err != nil {
		return model.Location{}, err
	}

	if err := d.locations.Update(ctx, &location); err != nil {
		return model.Location{}, apperr.Wrap(err, apperr.Internal, "updating location")
	}
	return location, nil
}

// DeleteLocation removes a location owned by the calling admin. Users
// still assigned to it will fail subsequent check-ins until reassigned;
// historical records keep their snapshot of the id.
func (d *Directory) DeleteLocation(ctx context.Context, caller Identity, locationID string) error {
	if _, err := d.ownedLocation(ctx, caller, locationID); err != nil {
		return err
	}
	if err := d.locations.Delete(ctx, locationID); err != nil {
		return apperr.Wrap(err, apperr.Internal, "deleting location")
	}
	return nil
}

// ListLocations returns the locations owned by the calling admin.
func (d *Directory) ListLocations(ctx context.Context, caller Identity) ([]model.Location, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "only admins can list locations")
	}
	locations, err := d.locations.ListByAdmin(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, "listing locations")
	}
	return locations, nil
}

// AssignUserLocation points a user at a geofence. Both the user and the
// location must belong to the calling admin.
func (d *Directory) AssignUserLocation(ctx context.Context, caller Identity, userID, locationID string) (model.User, error) {
	if !caller.IsAdmin() {
		return model.User{}, apperr.New(apperr.Forbidden, "only admins can assign locations")
	}
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, apperr.New(apperr.NotFound, "user not found")
		}
		return model.User{}, apperr.Wrap(err, apperr.Internal, "looking up user")
	}
	if user.AdminID == nil || *user.AdminID != caller.UserID {
		return model.User{}, apperr.New(apperr.Forbidden, "user belongs to another admin")
	}
	if _, err := d.ownedLocation(ctx, caller, locationID); err != nil {
		return model.User{}, err
	}

	if err := d.users.SetLocation(ctx, userID, &locationID); err != nil {
		return model.User{}, apperr.Wrap(err, apperr.Internal, "assigning location")
	}
	user.LocationID = &locationID
	return user, nil
}

// GetUserLocation returns the location currently assigned to the user, or
// nil when none is assigned. Callable by the user themself or their owning
// admin.
func (d *Directory) GetUserLocation(ctx context.Context, caller Identity, userID string) (*model.Location, error) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.Internal, "looking up user")
	}

	self := caller.UserID == userID
	owner := caller.IsAdmin() && user.AdminID != nil && *user.AdminID == caller.UserID
	if !self && !owner {
		return nil, apperr.New(apperr.Forbidden, "not allowed to read this user's location")
	}

	if user.LocationID == nil {
		return nil, nil
	}
	location, err := d.locations.GetByID(ctx, *user.LocationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Assignment points at a deleted location; treat as unassigned.
			return nil, nil
		}
		return nil, apperr.Wrap(err, apperr.Internal, "looking up location")
	}
	return &location, nil
}

func (d *Directory) ownedLocation(ctx context.Context, caller Identity, locationID string) (model.Location, error) {
	if !caller.IsAdmin() {
		return model.Location{}, apperr.New(apperr.Forbidden, "only admins can manage locations")
	}
	location, err := d.locations.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Location{}, apperr.New(apperr.NotFound, "location not found")
		}
		return model.Location{}, apperr.Wrap(err, apperr.Internal, "looking up location")
	}
	if location.AdminID != caller.UserID {
		return model.Location{}, apperr.New(apperr.Forbidden, "location belongs to another admin")
	}
	return location, nil
}
