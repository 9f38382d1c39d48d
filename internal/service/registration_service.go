package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/ids"
	mailer "github.com/SG-STD/ofox-backend/internal/mail"
	"github.com/SG-STD/ofox-backend/internal/media/sniffer"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/repository"
	"github.com/SG-STD/ofox-backend/internal/security"
)

const (
	minPasswordLen     = 6
	maxProfileImageLen = 5 << 20
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,32}$`)

type RegistrationOptions struct {
	CodeTTL    time.Duration
	BcryptCost int
}

// RegistrationService stages pending registrations, mails verification
// codes and promotes verified registrations into users.
//
// The email and handle checks in PreRegister are read-then-write: two
// concurrent registrations for the same email both reach the pending stage
// and the later write wins. The unique indexes on users reject the second
// promotion with DuplicateIdentifier.
type RegistrationService struct {
	users   UserStore
	pending PendingStore
	mailer  mailer.Sender
	images  ImageStore
	opts    RegistrationOptions
	log     zerolog.Logger
	now     func() time.Time
}

func NewRegistrationService(
	users UserStore,
	pending PendingStore,
	sender mailer.Sender,
	images ImageStore,
	opts RegistrationOptions,
	log zerolog.Logger,
) *RegistrationService {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = time.Hour
	}
	return &RegistrationService{
		users:   users,
		pending: pending,
		mailer:  sender,
		images:  images,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

type PreRegisterInput struct {
	Email          string
	Handle         string
	Password       string
	ProfilePicture []byte
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *RegistrationService) PreRegister(ctx context.Context, input PreRegisterInput) error {
	const op = "registration.pre_register"

	email := normalizeEmail(input.Email)
	handle := strings.TrimSpace(input.Handle)

	switch {
	case !validEmail(email):
		return apperr.New(apperr.InvalidInput, op, "invalid email")
	case !handlePattern.MatchString(handle):
		return apperr.New(apperr.InvalidInput, op, "handle must be 3-32 letters, digits, '_' or '.'")
	case len(input.Password) < minPasswordLen:
		return apperr.Newf(apperr.InvalidInput, op, "password must be at least %d characters", minPasswordLen)
	}
	if len(input.ProfilePicture) > 0 {
		if len(input.ProfilePicture) > maxProfileImageLen {
			return apperr.New(apperr.InvalidInput, op, "profile picture is too large")
		}
		if _, err := sniffer.ProfileImage(input.ProfilePicture); err != nil {
			return apperr.Wrap(apperr.InvalidInput, op, err)
		}
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if exists {
		return apperr.New(apperr.DuplicateIdentifier, op, "email already registered")
	}
	exists, err = s.users.HandleExists(ctx, handle)
	if err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if exists {
		return apperr.New(apperr.DuplicateIdentifier, op, "handle already taken")
	}

	code, err := security.GenerateCode()
	if err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	hash, err := security.HashPassword(input.Password, s.opts.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	now := s.now()
	pending := models.PendingRegistration{
		EmailKey:       repository.EmailKey(email),
		Email:          email,
		Handle:         handle,
		PasswordHash:   hash,
		ProfilePicture: input.ProfilePicture,
		Code:           code,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.opts.CodeTTL),
	}
	if err := s.pending.Save(ctx, pending); err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	if err := s.send(ctx, pending); err != nil {
		if delErr := s.pending.Delete(ctx, pending.EmailKey); delErr != nil {
			s.log.Error().Err(delErr).Str("email_key", pending.EmailKey).Msg("rollback pending registration failed")
		}
		return apperr.Wrap(apperr.DeliveryFailed, op, err)
	}

	s.log.Info().Str("handle", handle).Msg("verification code sent")
	return nil
}

// Verify promotes the pending registration for email when code matches
// and has not expired. An expired registration is left in place for the
// purge job.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (models.User, error) {
	const op = "registration.verify"

	email = normalizeEmail(email)
	pending, err := s.getPending(ctx, op, email)
	if err != nil {
		return models.User{}, err
	}

	now := s.now()
	if pending.ExpiredAt(now) {
		return models.User{}, apperr.New(apperr.CodeExpired, op, "verification code expired")
	}
	if !security.CodesEqual(pending.Code, strings.TrimSpace(code)) {
		return models.User{}, apperr.New(apperr.CodeMismatch, op, "verification code does not match")
	}

	user := models.User{
		ID:            ids.New(),
		Handle:        pending.Handle,
		Email:         pending.Email,
		PasswordHash:  pending.PasswordHash,
		RegisteredAt:  now,
		LastLoginAt:   &now,
		LastSeenAt:    &now,
		EmailVerified: true,
	}
	if err := s.users.CreateFromPending(ctx, user, pending.EmailKey); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, apperr.New(apperr.DuplicateIdentifier, op, "email or handle already registered")
		}
		return models.User{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}

	if len(pending.ProfilePicture) > 0 && s.images != nil {
		url, err := s.images.PutProfileImage(ctx, user.ID, uuid.NewString(), pending.ProfilePicture)
		if err == nil {
			err = s.users.SetProfilePicture(ctx, user.ID, url)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile picture upload after verification failed")
		} else {
			user.ProfilePicture = url
		}
	}

	s.log.Info().Str("user_id", user.ID).Str("handle", user.Handle).Msg("user registered")
	return user, nil
}

func (s *RegistrationService) ResendCode(ctx context.Context, email string) error {
	const op = "registration.resend_code"

	email = normalizeEmail(email)
	pending, err := s.getPending(ctx, op, email)
	if err != nil {
		return err
	}

	code, err := security.GenerateCode()
	if err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	pending.Code = code
	pending.ExpiresAt = s.now().Add(s.opts.CodeTTL)

	if err := s.pending.UpdateCode(ctx, pending.EmailKey, pending.Code, pending.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return apperr.New(apperr.RegistrationNotFound, op, "no pending registration for this email")
		}
		return apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if err := s.send(ctx, pending); err != nil {
		return apperr.Wrap(apperr.DeliveryFailed, op, err)
	}
	return nil
}

func (s *RegistrationService) getPending(ctx context.Context, op, email string) (models.PendingRegistration, error) {
	if email == "" {
		return models.PendingRegistration{}, apperr.New(apperr.InvalidInput, op, "email is required")
	}
	pending, err := s.pending.Get(ctx, repository.EmailKey(email))
	if err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return models.PendingRegistration{}, apperr.New(apperr.RegistrationNotFound, op, "no pending registration for this email")
		}
		return models.PendingRegistration{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return pending, nil
}

func (s *RegistrationService) send(ctx context.Context, p models.PendingRegistration) error {
	return s.mailer.SendVerification(ctx, mailer.Verification{
		To:     p.Email,
		Handle: p.Handle,
		Code:   p.Code,
		TTL:    s.opts.CodeTTL,
	})
}
