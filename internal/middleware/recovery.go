package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/crashreport"
	"github.com/SG-STD/ofox-backend/internal/queue"
)

type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, fields map[string]any) error
}

// Recovery answers 500 on a handler panic and hands the crash report to
// the worker stream. The process keeps serving.
func Recovery(log zerolog.Logger, app string, tasks TaskEnqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				requestID := c.Writer.Header().Get(requestIDHeader)
				log.Error().
					Interface("error", r).
					Str("request_id", requestID).
					Bytes("stack", stack).
					Msg("panic recovered")

				if tasks != nil {
					report := crashreport.Capture(app, "http", c.Request.Method+" "+c.FullPath(), r, stack)
					ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
					if err := tasks.Enqueue(ctx, queue.TaskCrashReport, report.Fields()); err != nil {
						log.Warn().Err(err).Str("request_id", requestID).Msg("enqueue crash report failed")
					}
					cancel()
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   apperr.RemoteStoreError,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
