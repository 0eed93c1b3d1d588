package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"checkin-service/internal/service"
	"checkin-service/pkg/jwtutil"
	"checkin-service/pkg/logger"
	"checkin-service/prometheus"
)

// identityKey is where the authenticated caller context lives on the echo
// context.
const identityKey = "identity"

// AuthMiddleware validates the JWT token from the Authorization header and
// stores the caller Identity for the handlers.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set(identityKey, service.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
			AdminID:  claims.AdminID,
		})

		return next(c)
	}
}

// IdentityFromContext returns the Identity set by AuthMiddleware.
func IdentityFromContext(c echo.Context) (service.Identity, bool) {
	ident, ok := c.Get(identityKey).(service.Identity)
	return ident, ok
}
