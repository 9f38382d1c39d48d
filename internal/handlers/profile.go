package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/apperr"
)

const maxPictureUpload = 5 << 20

// UploadProfilePicture accepts a multipart "file" field holding a JPEG.
func (h HandlerSet) UploadProfilePicture(c *gin.Context) {
	const op = "handlers.profile_picture"

	user, exists := currentUser(c)
	if !exists {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, apperr.New(apperr.InvalidInput, op, "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPictureUpload+1))
	if err != nil {
		badRequest(c, op, err)
		return
	}
	if len(data) > maxPictureUpload {
		fail(c, apperr.New(apperr.InvalidInput, op, "profile picture is too large"))
		return
	}

	url, err := h.profiles.UploadPicture(c.Request.Context(), user.ID, data)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("profile picture upload failed")
		fail(c, err)
		return
	}
	ok(c, gin.H{"profilePicture": url})
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) SetFCMToken(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "handlers.fcm_token", err)
		return
	}
	if err := h.profiles.SetFCMToken(c.Request.Context(), user.ID, req.Token); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"registered": true})
}
