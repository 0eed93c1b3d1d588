package service

import (
	"context"
	"errors"
	"fmt"

	"checkin-service/internal/apperr"
	"checkin-service/internal/geo"
	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// Authorizer decides check-ins: it resolves the caller's assigned
// geofence, runs the distance check and appends exactly one record per
// invocation, whatever the outcome. Being outside the radius is a normal
// recorded outcome; only malformed input, missing assignment or storage
// faults fail the call, and those write nothing.
type Authorizer struct {
	users     store.UserStore
	locations store.LocationStore
	ledger    *Ledger
}

func NewAuthorizer(users store.UserStore, locations store.LocationStore, ledger *Ledger) *Authorizer {
	return &Authorizer{users: users, locations: locations, ledger: ledger}
}

// CheckInRequest is a reported coordinate for the authenticated user.
// UserID is optional; when present it must match the caller.
type CheckInRequest struct {
	UserID    string
	Latitude  float64
	Longitude float64
}

// CheckInResult is the written record plus the authoritative distance the
// decision was based on.
type CheckInResult struct {
	Record   model.AttendanceRecord
	Distance float64
}

// CheckIn evaluates a reported coordinate against the caller's assigned
// geofence and appends the outcome to the ledger.
func (a *Authorizer) CheckIn(ctx context.Context, caller Identity, req CheckInRequest) (CheckInResult, error) {
	if req.UserID != "" && req.UserID != caller.UserID {
		return CheckInResult{}, apperr.New(apperr.Forbidden, "cannot check in for another user")
	}
	if !geo.ValidLatitude(req.Latitude) || !geo.ValidLongitude(req.Longitude) {
		return CheckInResult{}, apperr.Newf(apperr.InvalidArgument,
			"malformed coordinate (%v, %v)", req.Latitude, req.Longitude)
	}

	user, err := a.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CheckInResult{}, apperr.New(apperr.NotFound, "user not found")
		}
		return CheckInResult{}, apperr.Wrap(err, apperr.Internal, "looking up user")
	}
	if user.LocationID == nil {
		return CheckInResult{}, apperr.New(apperr.NoLocationAssigned, "no check-in location assigned")
	}

	location, err := a.locations.GetByID(ctx, *user.LocationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CheckInResult{}, apperr.New(apperr.NotFound, "assigned location no longer exists")
		}
		return CheckInResult{}, apperr.Wrap(err, apperr.Internal, "looking up location")
	}

	distance := geo.DistanceMeters(
		geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		geo.Coordinate{Latitude: location.Latitude, Longitude: location.Longitude},
	)

	record := model.AttendanceRecord{
		UserID:     user.ID,
		LocationID: location.ID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Status:     model.StatusSuccess,
	}
	if user.AdminID != nil {
		record.AdminID = *user.AdminID
	}
	if distance > location.Radius {
		record.Status = model.StatusFailed
		reason := fmt.Sprintf("outside allowed radius: %.2f m from %s, limit %.0f m",
			distance, location.Name, location.Radius)
		record.ErrorMessage = &reason
	}

	if err := a.ledger.Append(ctx, &record); err != nil {
		return CheckInResult{}, err
	}
	return CheckInResult{Record: record, Distance: distance}, nil
}
