package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/config"
	"github.com/SG-STD/ofox-backend/internal/ids"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/repository"
	"github.com/SG-STD/ofox-backend/internal/security"
)

const (
	defaultDeviceName = "Unknown device"
	defaultDeviceType = "ANDROID"
)

type AuthService struct {
	users    UserStore
	sessions SessionStore
	audit    *Auditor
	bg       *Background
	cfg      config.SecurityConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	audit *Auditor,
	bg *Background,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		bg:       bg,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type LoginInput struct {
	Identifier string
	Password   string
	DeviceName string
	DeviceType string
}

type LoginResult struct {
	UserID         string
	Handle         string
	Email          string
	ProfilePicture string
	Status         string
	SessionID      string
	AccessToken    string
}

// Login runs lookup, password check and session creation. The
// last-login write is fire-and-forget and does not roll back with the
// session write.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	const op = "auth.login"

	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return LoginResult{}, apperr.New(apperr.InvalidInput, op, "identifier and password are required")
	}

	s.audit.AuthAttempt(ctx, identifier, "login_attempt")

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.audit.AuthAttempt(ctx, identifier, "login_failed")
			return LoginResult{}, apperr.New(apperr.UserNotFound, op, "user not found")
		}
		return LoginResult{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		s.audit.AuthAttempt(ctx, identifier, "login_failed")
		return LoginResult{}, apperr.New(apperr.BadPassword, op, "wrong password")
	}
	if security.PasswordScheme(user.PasswordHash) == security.SchemePlaintext {
		s.log.Warn().Str("user_id", user.ID).Msg("password stored without hashing")
	}
	if user.IsBanned {
		return LoginResult{}, apperr.New(apperr.Banned, op, "account is banned")
	}

	now := s.now()
	userID := user.ID
	s.bg.Go(ctx, "auth.update_last_login", func(ctx context.Context) error {
		return s.users.UpdateLastLogin(ctx, userID, now)
	})

	session := models.Session{
		ID:         ids.Session(),
		Handle:     user.Handle,
		UserID:     user.ID,
		DeviceName: orDefault(input.DeviceName, defaultDeviceName),
		DeviceType: orDefault(input.DeviceType, defaultDeviceType),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	if err := s.enforceSessionLimit(ctx, user.Handle); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	token, err := security.GenerateAccessToken(s.cfg.JWTAccessSecret, user.ID, session.ID, user.Handle, s.cfg.JWTAccessTTL, now)
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	s.audit.AuthAttempt(ctx, identifier, "login_success")

	return LoginResult{
		UserID:         user.ID,
		Handle:         user.Handle,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		Status:         user.Status,
		SessionID:      session.ID,
		AccessToken:    token,
	}, nil
}

// lookup tries the identifier as an email first, then as a handle.
func (s *AuthService) lookup(ctx context.Context, identifier string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}
	return s.users.FindByHandle(ctx, identifier)
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, handle string) error {
	if s.cfg.MaxSessions <= 0 {
		return nil
	}
	count, err := s.sessions.CountByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldestSessions(ctx, handle, s.cfg.MaxSessions)
}

type Principal struct {
	User    models.User
	Session models.Session
}

// Authenticate resolves a bearer token into its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	const op = "auth.authenticate"

	claims, err := security.ParseAccessToken(token, s.cfg.JWTAccessSecret)
	if err != nil {
		return Principal{}, apperr.New(apperr.Unauthorized, op, "invalid token")
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Principal{}, apperr.New(apperr.Unauthorized, op, "session revoked")
		}
		return Principal{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if session.UserID != claims.UserID {
		return Principal{}, apperr.New(apperr.Unauthorized, op, "session mismatch")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Principal{}, apperr.New(apperr.Unauthorized, op, "user not found")
		}
		return Principal{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	now := s.now()
	s.bg.Go(ctx, "auth.touch", func(ctx context.Context) error {
		if err := s.sessions.Touch(ctx, session.ID); err != nil {
			return err
		}
		return s.users.TouchLastSeen(ctx, user.ID, now)
	})

	return Principal{User: user, Session: session}, nil
}

func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	return s.RevokeSession(ctx, p.User, p.Session.ID)
}

func (s *AuthService) ListSessions(ctx context.Context, user models.User) ([]models.Session, error) {
	sessions, err := s.sessions.ListByHandle(ctx, user.Handle)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteStoreError, "auth.sessions", err)
	}
	return sessions, nil
}

func (s *AuthService) RevokeSession(ctx context.Context, user models.User, sessionID string) error {
	const op = "auth.revoke"
	if err := s.sessions.DeleteByID(ctx, user.ID, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperr.New(apperr.NotFound, op, "session not found")
		}
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	s.audit.AuthAttempt(ctx, user.Handle, "logout")
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
