package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
)

// RequireActive rejects banned accounts that still hold a live session.
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			AbortWithError(c, apperr.New(apperr.Unauthorized, "authorize", "unauthorized"))
			return
		}
		if user.IsBanned {
			AbortWithError(c, apperr.New(apperr.Banned, "authorize", "account is banned"))
			return
		}
		c.Next()
	}
}

type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// RequireBootstrap holds requests back until the shared secret is loaded.
func RequireBootstrap(boot ReadyChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := boot.Ready(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
