package models

import "time"

// OnlineWindow is how recently a user must have been seen to count as online.
const OnlineWindow = 5 * time.Minute

type User struct {
	ID             string
	Handle         string
	Email          string
	PasswordHash   string
	ProfilePicture string
	Status         string
	RegisteredAt   time.Time
	LastLoginAt    *time.Time
	LastSeenAt     *time.Time
	IsOnline       bool
	IsBanned       bool
	EmailVerified  bool
	FCMToken       *string
}

func (u User) OnlineAt(now time.Time) bool {
	return u.LastSeenAt != nil && now.Sub(*u.LastSeenAt) < OnlineWindow
}

type Session struct {
	ID           string
	Handle       string
	UserID       string
	DeviceName   string
	DeviceType   string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

type PendingRegistration struct {
	EmailKey       string
	Email          string
	Handle         string
	PasswordHash   string
	ProfilePicture []byte
	Code           string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func (p PendingRegistration) ExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
