package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SG-STD/ofox-backend/internal/models"
)

// Profile is the cached public view of a user record.
type Profile struct {
	UserID         string     `json:"user_id"`
	Handle         string     `json:"handle"`
	Email          string     `json:"email"`
	ProfilePicture string     `json:"profile_picture"`
	Status         string     `json:"status"`
	RegisteredAt   time.Time  `json:"registered_at"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
}

func ProfileFromUser(u models.User) Profile {
	return Profile{
		UserID:         u.ID,
		Handle:         u.Handle,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Status:         u.Status,
		RegisteredAt:   u.RegisteredAt,
		LastSeenAt:     u.LastSeenAt,
	}
}

type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func profileKey(userID string) string {
	return "ofox:profile:" + userID
}

// Get reports false on a cache miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (Profile, bool, error) {
	raw, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Profile{}, false, nil
		}
		return Profile{}, false, fmt.Errorf("profile cache get: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false, fmt.Errorf("profile cache decode: %w", err)
	}
	return p, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, profileKey(p.UserID), raw, c.ttl).Err()
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, profileKey(userID)).Err()
}
