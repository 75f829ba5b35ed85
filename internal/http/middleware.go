package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-server/internal/domain"
	"account-server/internal/service"
)

const currentUserKey = "currentUser"

// requireAuth gates protected routes. It extracts an access token from
// the cookie store or the Authorization header, verifies it and resolves
// the account it names before letting the request through.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractAccessToken(c)
		if raw == "" {
			h.fail(c, fmt.Errorf("%w: missing access token", service.ErrUnauthorized))
			return
		}

		claims, err := h.tokens.VerifyAccessToken(raw)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: invalid access token", service.ErrUnauthorized))
			return
		}

		user, err := h.users.GetCurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: invalid access token", service.ErrUnauthorized))
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// currentUserFrom returns the identity attached by requireAuth. Only
// valid on routes behind the guard.
func currentUserFrom(c *gin.Context) *domain.User {
	user, _ := c.MustGet(currentUserKey).(*domain.User)
	return user
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		c.Next()

		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Info("request handled")
	}
}
