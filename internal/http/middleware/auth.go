package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/metrics"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"github.com/phambaophuc/rewind-photos/internal/services/auth"
	"go.uber.org/zap"
)

const userKey = "user"

// Authenticate rejects requests without a valid bearer token and stores the
// caller for later handlers.
func Authenticate(verifier auth.TokenVerifier, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := auth.BearerToken(ctx.GetHeader("Authorization"))
		if err != nil {
			recordAuthFailure(m, "missing_token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Missing or invalid Authorization header",
			})
			return
		}

		user, err := verifier.Verify(ctx.Request.Context(), token)
		if err != nil {
			reason := "invalid_token"
			if !errors.Is(err, auth.ErrUnauthorized) {
				reason = "verifier_error"
			}
			recordAuthFailure(m, reason)
			logger.Warn("Authentication failed",
				zap.String("path", ctx.Request.URL.Path),
				zap.String("client_ip", ctx.ClientIP()),
				zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired authentication token",
			})
			return
		}

		ctx.Set(userKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the caller stored by Authenticate.
func CurrentUser(ctx *gin.Context) (*auth.User, bool) {
	user := userFromKeys(ctx.Keys)
	return user, user != nil
}

func userFromKeys(keys map[string]any) *auth.User {
	user, _ := keys[userKey].(*auth.User)
	return user
}

func recordAuthFailure(m *metrics.Metrics, reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
}
