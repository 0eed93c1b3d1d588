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

// User serves the tenant directory's user endpoints. Every operation is
// scoped by the caller Identity set by the auth middleware.
type User struct {
	directory *service.Directory
}

func NewUser(directory *service.Directory) *User {
	return &User{directory: directory}
}

// UserRequest defines the structure for user creation requests.
type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create creates a user owned by the calling admin.
func (h *User) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("create_user")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := h.directory.CreateUser(c.Request().Context(), ident, service.CreateUserRequest{
		Username: req.Username,
		Secret:   req.Password,
		Role:     req.Role,
	})
	if err != nil {
		log.Warn("Failed to create user",
			zap.String("username", req.Username),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("User created",
		zap.String("id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// List returns the users owned by the calling admin.
func (h *User) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("list_users")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.directory.ListUsers(c.Request().Context(), ident)
	if err != nil {
		log.Warn("Failed to list users", zap.Error(err))
		return respondError(c, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// Delete removes a user owned by the calling admin. The user's attendance
// history stays in the ledger.
func (h *User) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("delete_user")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.directory.DeleteUser(c.Request().Context(), ident, c.Param("id")); err != nil {
		log.Warn("Failed to delete user",
			zap.String("id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("User deleted", zap.String("id", c.Param("id")))
	return c.NoContent(http.StatusNoContent)
}

// AssignLocation points a user at a geofence owned by the same admin.
func (h *User) AssignLocation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryOperation("assign_location")

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		LocationID string `json:"locationId"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.LocationID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "locationId is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, err := h.directory.AssignUserLocation(c.Request().Context(), ident, c.Param("id"), req.LocationID)
	if err != nil {
		log.Warn("Failed to assign location",
			zap.String("user_id", c.Param("id")),
			zap.String("location_id", req.LocationID),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Location assigned",
		zap.String("user_id", user.ID),
		zap.String("location_id", req.LocationID))
	return c.JSON(http.StatusOK, user)
}

// GetLocation returns the location currently assigned to a user, or null.
// Callable by the user themself or their owning admin.
func (h *User) GetLocation(c echo.Context) error {
	log := logger.FromContext(c)

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	location, err := h.directory.GetUserLocation(c.Request().Context(), ident, c.Param("id"))
	if err != nil {
		log.Warn("Failed to get user location",
			zap.String("user_id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, location)
}
