package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserOnlineAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-4 * time.Minute)
	stale := now.Add(-5 * time.Minute)

	assert.True(t, User{LastSeenAt: &recent}.OnlineAt(now))
	assert.False(t, User{LastSeenAt: &stale}.OnlineAt(now))
	assert.False(t, User{}.OnlineAt(now))
}

func TestPendingExpiredAt(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := PendingRegistration{CreatedAt: created, ExpiresAt: created.Add(time.Hour)}

	assert.False(t, p.ExpiredAt(created.Add(time.Hour)))
	assert.True(t, p.ExpiredAt(created.Add(3601*time.Second)))
}
