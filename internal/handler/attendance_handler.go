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

// Attendance serves check-in and ledger read endpoints.
type Attendance struct {
	authorizer *service.Authorizer
	ledger     *service.Ledger
}

func NewAttendance(authorizer *service.Authorizer, ledger *service.Ledger) *Attendance {
	return &Attendance{authorizer: authorizer, ledger: ledger}
}

// CheckInRequest reports a coordinate for the authenticated user. The
// coordinates are required; a missing field is a malformed request, not a
// check-in at (0, 0).
type CheckInRequest struct {
	UserID    string   `json:"userId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CheckIn evaluates the reported coordinate against the caller's assigned
// geofence. Both in-radius and out-of-radius outcomes answer 200 with a
// record; only malformed input, a missing assignment or a storage fault
// fail the call.
func (h *Attendance) CheckIn(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.CheckInCounter.Inc()

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Latitude == nil || req.Longitude == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	result, err := h.authorizer.CheckIn(c.Request().Context(), ident, service.CheckInRequest{
		UserID:    req.UserID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		log.Warn("Check-in rejected",
			zap.String("user_id", ident.UserID),
			zap.Error(err))
		return respondError(c, err)
	}

	record := result.Record
	prometheus.RecordCheckInOutcome(record.Status, result.Distance)

	success := record.Status == model.StatusSuccess
	message := "check-in recorded"
	if !success && record.ErrorMessage != nil {
		message = *record.ErrorMessage
	}

	log.Info("Check-in recorded",
		zap.String("user_id", record.UserID),
		zap.String("location_id", record.LocationID),
		zap.String("status", record.Status),
		zap.Float64("distance_m", result.Distance))

	return c.JSON(http.StatusOK, echo.Map{
		"success": success,
		"record":  record,
		"message": message,
	})
}

// ListRecords returns attendance history newest-first. A user sees their
// own records; an admin sees their tenant's, optionally narrowed to one
// user with ?userId=.
func (h *Attendance) ListRecords(c echo.Context) error {
	log := logger.FromContext(c)

	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	userID := c.QueryParam("userId")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var (
		records []model.AttendanceRecord
		err     error
	)
	switch {
	case ident.IsAdmin() && userID == "":
		records, err = h.ledger.ListByAdmin(c.Request().Context(), ident)
	case userID == "":
		records, err = h.ledger.ListByUser(c.Request().Context(), ident, ident.UserID)
	default:
		records, err = h.ledger.ListByUser(c.Request().Context(), ident, userID)
	}
	if err != nil {
		log.Warn("Failed to list attendance records", zap.Error(err))
		return respondError(c, err)
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	return c.JSON(http.StatusOK, records)
}
