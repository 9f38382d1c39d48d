package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Environment  string            `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		deps[name] = "ok"
		if err := check(ctx); err != nil {
			deps[name] = "error"
			h.log.Error().Err(err).Str("dependency", name).Msg("health check failed")
		}
	}

	env := ""
	if h.cfg != nil {
		env = h.cfg.Environment
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:       "ok",
		Dependencies: deps,
		Environment:  env,
	})
}
