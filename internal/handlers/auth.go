package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/middleware"
	"github.com/SG-STD/ofox-backend/internal/service"
)

const actionLogin = "login"

type authRequest struct {
	Action     string `json:"action" binding:"required"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DeviceName string `json:"deviceName"`
	DeviceType string `json:"deviceType"`
}

type loginResponse struct {
	UserID         string `json:"userId"`
	Handle         string `json:"handle"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Status         string `json:"status"`
	SessionID      string `json:"sessionId"`
	AccessToken    string `json:"accessToken"`
}

// AuthAction dispatches POST /v1/auth on its action tag.
func (h HandlerSet) AuthAction(c *gin.Context) {
	const op = "handlers.auth"

	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, op, err)
		return
	}
	if !h.admit(c, h.limiters.Auth, "ip:"+c.ClientIP(), op) {
		return
	}

	switch req.Action {
	case actionLogin:
		h.login(c, req)
	default:
		fail(c, apperr.Newf(apperr.UnknownAction, op, "unknown action %q", req.Action))
	}
}

func (h HandlerSet) login(c *gin.Context, req authRequest) {
	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, loginResponse{
		UserID:         result.UserID,
		Handle:         result.Handle,
		Email:          result.Email,
		ProfilePicture: result.ProfilePicture,
		Status:         result.Status,
		SessionID:      result.SessionID,
		AccessToken:    result.AccessToken,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	principal, exists := middleware.PrincipalFrom(c)
	if !exists {
		fail(c, apperr.New(apperr.Unauthorized, "handlers.logout", "unauthorized"))
		return
	}
	if err := h.auth.Logout(c.Request.Context(), principal); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"loggedOut": true})
}

type sessionResponse struct {
	ID           string    `json:"id"`
	DeviceName   string    `json:"deviceName"`
	DeviceType   string    `json:"deviceType"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	Current      bool      `json:"current"`
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	principal, exists := middleware.PrincipalFrom(c)
	if !exists {
		fail(c, apperr.New(apperr.Unauthorized, "handlers.sessions", "unauthorized"))
		return
	}

	sessions, err := h.auth.ListSessions(c.Request.Context(), principal.User)
	if err != nil {
		fail(c, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, sessionResponse{
			ID:           session.ID,
			DeviceName:   session.DeviceName,
			DeviceType:   session.DeviceType,
			CreatedAt:    session.CreatedAt,
			LastActiveAt: session.LastActiveAt,
			Current:      session.ID == principal.Session.ID,
		})
	}
	ok(c, gin.H{"sessions": resp})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	const op = "handlers.revoke_session"

	principal, exists := middleware.PrincipalFrom(c)
	if !exists {
		fail(c, apperr.New(apperr.Unauthorized, op, "unauthorized"))
		return
	}
	sessionID := c.Param("id")
	if sessionID == principal.Session.ID {
		fail(c, apperr.New(apperr.InvalidInput, op, "use logout to end the current session"))
		return
	}
	if err := h.auth.RevokeSession(c.Request.Context(), principal.User, sessionID); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"revoked": sessionID})
}
