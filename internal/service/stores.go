package service

import (
	"context"
	"time"

	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/models"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByHandle(ctx context.Context, handle string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	CreateFromPending(ctx context.Context, user models.User, emailKey string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, handle, status *string) error
	SetProfilePicture(ctx context.Context, id, url string) error
	SetFCMToken(ctx context.Context, id, token string) error
	Search(ctx context.Context, query, excludeID string, limit, offset int) ([]models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	CountByHandle(ctx context.Context, handle string) (int, error)
	DeleteOldestSessions(ctx context.Context, handle string, keepLatest int) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, userID, id string) error
	ListByHandle(ctx context.Context, handle string) ([]models.Session, error)
	Touch(ctx context.Context, id string) error
}

type PendingStore interface {
	Save(ctx context.Context, p models.PendingRegistration) error
	Get(ctx context.Context, emailKey string) (models.PendingRegistration, error)
	UpdateCode(ctx context.Context, emailKey, code string, expiresAt time.Time) error
	Delete(ctx context.Context, emailKey string) error
}

type ConfigStore interface {
	Get(ctx context.Context, path string) (string, error)
}

type AuditStore interface {
	InsertAuth(ctx context.Context, entry models.AuthLog) error
	InsertUserAction(ctx context.Context, entry models.UserActionLog) error
}

type ChatStore interface {
	CreateIfAbsent(ctx context.Context, chat models.Chat) (bool, error)
	Get(ctx context.Context, id string) (models.Chat, error)
	AddMessage(ctx context.Context, msg models.Message) error
	Recent(ctx context.Context, userID string, limit int) ([]models.Chat, error)
	Messages(ctx context.Context, chatID string, limit int) ([]models.Message, error)
}

type ImageStore interface {
	PutProfileImage(ctx context.Context, userID, imageID string, data []byte) (string, error)
}

type ProfileCache interface {
	Get(ctx context.Context, userID string) (cache.Profile, bool, error)
	Set(ctx context.Context, p cache.Profile) error
	Invalidate(ctx context.Context, userID string) error
}
