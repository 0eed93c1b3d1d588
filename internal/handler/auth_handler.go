package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"checkin-service/internal/apperr"
	"checkin-service/internal/service"
	"checkin-service/pkg/jwtutil"
	"checkin-service/pkg/logger"
	"checkin-service/prometheus"
)

// Auth serves the credential gate endpoints.
type Auth struct {
	gate *service.Gate
}

func NewAuth(gate *service.Gate) *Auth {
	return &Auth{gate: gate}
}

// Login authenticates a username/secret pair and issues a JWT. Unknown
// username and wrong password answer identically.
func (h *Auth) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "invalid request",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.gate.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.InvalidCredentials) {
			log.Info("Login rejected", zap.String("username", req.Username))
			prometheus.RecordAuthError("invalid_credentials")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"message": apperr.MessageOf(err),
			})
		}
		log.Error("Login failed", zap.Error(err))
		return respondError(c, err)
	}

	token, err := jwtutil.GenerateToken(user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "token error",
		})
	}

	log.Info("User logged in",
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
