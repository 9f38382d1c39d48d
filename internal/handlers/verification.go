package handlers

import (
	"encoding/base64"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/service"
)

const (
	actionPreRegister = "pre_register"
	actionVerifyCode  = "verify_code"
	actionResendCode  = "resend_code"
)

type verificationRequest struct {
	Action         string `json:"action" binding:"required"`
	Email          string `json:"email"`
	Handle         string `json:"handle"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
	Code           string `json:"code"`
}

type registeredUserResponse struct {
	UserID         string    `json:"userId"`
	Handle         string    `json:"handle"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

// VerificationAction dispatches POST /v1/verification. The code itself is
// only ever delivered by mail.
func (h HandlerSet) VerificationAction(c *gin.Context) {
	const op = "handlers.verification"

	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, op, err)
		return
	}
	if !h.admit(c, h.limiters.Verification, "ip:"+c.ClientIP(), op) {
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case actionPreRegister:
		var picture []byte
		if req.ProfilePicture != "" {
			decoded, err := base64.StdEncoding.DecodeString(req.ProfilePicture)
			if err != nil {
				fail(c, apperr.New(apperr.InvalidInput, op, "profilePicture must be base64"))
				return
			}
			picture = decoded
		}
		err := h.registration.PreRegister(ctx, service.PreRegisterInput{
			Email:          req.Email,
			Handle:         req.Handle,
			Password:       req.Password,
			ProfilePicture: picture,
		})
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"codeSent": true})

	case actionVerifyCode:
		user, err := h.registration.Verify(ctx, req.Email, req.Code)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, registeredUserResponse{
			UserID:         user.ID,
			Handle:         user.Handle,
			Email:          user.Email,
			ProfilePicture: user.ProfilePicture,
			RegisteredAt:   user.RegisteredAt,
		})

	case actionResendCode:
		if err := h.registration.ResendCode(ctx, req.Email); err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"codeSent": true})

	default:
		fail(c, apperr.Newf(apperr.UnknownAction, op, "unknown action %q", req.Action))
	}
}
