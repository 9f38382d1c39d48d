package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/middleware"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/ratelimit"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

func badRequest(c *gin.Context, op string, err error) {
	fail(c, apperr.Wrap(apperr.InvalidInput, op, err))
}

// admit consults limiter for key. A limiter backend failure lets the
// request through.
func (h HandlerSet) admit(c *gin.Context, limiter ratelimit.Limiter, key, op string) bool {
	if limiter == nil {
		return true
	}
	allowed, err := limiter.Admit(c.Request.Context(), key)
	if err != nil {
		h.log.Warn().Err(err).Str("op", op).Msg("rate limiter unavailable")
		return true
	}
	if !allowed {
		fail(c, apperr.New(apperr.RateLimited, op, "too many requests, try again later"))
		return false
	}
	return true
}

func currentUser(c *gin.Context) (models.User, bool) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		fail(c, apperr.New(apperr.Unauthorized, "handlers", "unauthorized"))
		return models.User{}, false
	}
	return user, true
}
