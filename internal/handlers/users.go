package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func pagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxLimit {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

// ListUsers searches the user directory by handle fragment.
func (h HandlerSet) ListUsers(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	limit, offset := pagination(c, 20, 100)

	profiles, err := h.profiles.Directory(c.Request.Context(), user, c.Query("q"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toProfileResponse(p))
	}
	ok(c, gin.H{"items": items})
}

type presenceResponse struct {
	UserID     string     `json:"userId"`
	Handle     string     `json:"handle"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

func (h HandlerSet) Presence(c *gin.Context) {
	p, err := h.profiles.Presence(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, presenceResponse{
		UserID:     p.UserID,
		Handle:     p.Handle,
		Online:     p.Online,
		LastSeenAt: p.LastSeenAt,
	})
}
