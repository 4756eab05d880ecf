package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
)

// OptionalAuth verifies a bearer token when one is sent and stores its
// subject under "user_id". An invalid token is always a 401; a missing one is
// a 401 only when required is set. A nil validator disables token checks.
func OptionalAuth(validator auth.TokenValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, malformed := bearerToken(c)
		if malformed {
			util.RespondUnauthorized(c, "authorization header must be a bearer token")
			return
		}
		if token == "" {
			if required {
				util.RespondUnauthorized(c, "missing bearer token")
				return
			}
			c.Next()
			return
		}

		if validator == nil {
			if required {
				util.RespondUnauthorized(c, "authentication is not configured")
				return
			}
			c.Next()
			return
		}

		identity, err := validator.ValidateToken(token)
		if err != nil {
			logger.Log.Debug("Rejected bearer token",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set("user_id", identity.UserID)
		if identity.Email != "" {
			c.Set("user_email", identity.Email)
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter used by EventSource and WebSocket clients that cannot set headers.
func bearerToken(c *gin.Context) (token string, malformed bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return c.Query("token"), false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", true
	}
	return strings.TrimSpace(token), false
}
