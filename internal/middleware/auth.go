package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/service"
)

const (
	principalKey   = "principal"
	currentUserKey = "current_user"
)

type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (service.Principal, error)
}

func Auth(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			AbortWithError(c, apperr.New(apperr.Unauthorized, "auth", "missing token"))
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set(currentUserKey, principal.User)

		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
