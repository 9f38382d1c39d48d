package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/service"
)

const (
	actionGetUserData   = "get_user_data"
	actionUpdateProfile = "update_profile"
)

type dataRequest struct {
	Action string  `json:"action" binding:"required"`
	Handle *string `json:"handle"`
	Status *string `json:"status"`
}

type profileResponse struct {
	UserID         string     `json:"userId"`
	Handle         string     `json:"handle"`
	Email          string     `json:"email,omitempty"`
	ProfilePicture string     `json:"profilePicture"`
	Status         string     `json:"status"`
	RegisteredAt   time.Time  `json:"registeredAt"`
	LastSeenAt     *time.Time `json:"lastSeenAt,omitempty"`
}

func toProfileResponse(p cache.Profile) profileResponse {
	return profileResponse{
		UserID:         p.UserID,
		Handle:         p.Handle,
		Email:          p.Email,
		ProfilePicture: p.ProfilePicture,
		Status:         p.Status,
		RegisteredAt:   p.RegisteredAt,
		LastSeenAt:     p.LastSeenAt,
	}
}

// DataAction dispatches POST /v1/data for the authenticated user.
func (h HandlerSet) DataAction(c *gin.Context) {
	const op = "handlers.data"

	user, exists := currentUser(c)
	if !exists {
		return
	}
	var req dataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, op, err)
		return
	}
	if !h.admit(c, h.limiters.Data, "user:"+user.ID, op) {
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case actionGetUserData:
		profile, err := h.profiles.GetUserData(ctx, user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, toProfileResponse(profile))

	case actionUpdateProfile:
		profile, err := h.profiles.UpdateProfile(ctx, user, service.UpdateProfileInput{
			Handle: req.Handle,
			Status: req.Status,
		})
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, toProfileResponse(profile))

	default:
		fail(c, apperr.Newf(apperr.UnknownAction, op, "unknown action %q", req.Action))
	}
}
