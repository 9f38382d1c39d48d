package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
)

// AbortWithError renders err as {"success":false,"error":kind,"message":text}.
func AbortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)
	if kind == apperr.RemoteStoreError {
		msg = "remote store error"
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
		"success": false,
		"error":   kind,
		"message": msg,
	})
}
