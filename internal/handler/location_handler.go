package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"checkin-service/internal/middleware"
	"checkin-service/internal/model"
	"checkin-service/internal/service"
	"checkin-service/pkg/logger"
	"checkin-service/prometheus"
)

// Location serves the geofence CRUD endpoints, scoped to the calling
// admin's tenant.
type Location struct {
	directory *service.Directory
}

func NewLocation(directory *service.Directory) *Location {
	return &Location{directory: directory}
}

// LocationRequest defines the structure for location creation requests.
type LocationRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

// LocationUpdateRequest allows partial updates; omitted fields keep their
// current value.
type LocationUpdateRequest struct {
	Name      *string  `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// Create creates a geofence owned by the calling admin.
func (h *Location) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("create_location")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req LocationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	location, err := h.directory.CreateLocation(c.Request().Context(), ident, service.CreateLocationRequest{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		log.Warn("Failed to create location",
			zap.String("name", req.Name),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Location created",
		zap.String("id", location.ID),
		zap.String("name", location.Name),
		zap.Float64("radius", location.Radius))
	return c.JSON(http.StatusCreated, location)
}

// List returns the locations owned by the calling admin.
func (h *Location) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("list_locations")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	locations, err := h.directory.ListLocations(c.Request().Context(), ident)
	if err != nil {
		log.Warn("Failed to list locations", zap.Error(err))
		return respondError(c, err)
	}
	if locations == nil {
		locations = []model.Location{}
	}
	return c.JSON(http.StatusOK, locations)
}

// Update applies a partial update to a location owned by the calling admin.
func (h *Location) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("update_location")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req LocationUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	location, err := h.directory.UpdateLocation(c.Request().Context(), ident, c.Param("id"), service.UpdateLocationRequest{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		log.Warn("Failed to update location",
			zap.String("id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Location updated", zap.String("id", location.ID))
	return c.JSON(http.StatusOK, location)
}

// Delete removes a location owned by the calling admin.
func (h *Location) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("delete_location")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.directory.DeleteLocation(c.Request().Context(), ident, c.Param("id")); err != nil {
		log.Warn("Failed to delete location",
			zap.String("id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Location deleted", zap.String("id", c.Param("id")))
	return c.NoContent(http.StatusNoContent)
}
