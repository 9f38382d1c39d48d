package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/cache"
	"github.com/SG-STD/ofox-backend/internal/media/sniffer"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/repository"
)

const maxStatusLen = 140

type ProfileService struct {
	users  UserStore
	cache  ProfileCache
	images ImageStore
	audit  *Auditor
	bg     *Background
	log    zerolog.Logger
	now    func() time.Time
}

func NewProfileService(users UserStore, profiles ProfileCache, images ImageStore, audit *Auditor, bg *Background, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		cache:  profiles,
		images: images,
		audit:  audit,
		bg:     bg,
		log:    log,
		now:    time.Now,
	}
}

// GetUserData returns the caller's profile and records the access as
// activity.
func (s *ProfileService) GetUserData(ctx context.Context, userID string) (cache.Profile, error) {
	const op = "profile.get_user_data"

	profile, err := s.load(ctx, userID)
	if err != nil {
		return cache.Profile{}, apperr.Wrap(apperr.KindOf(err), op, err)
	}

	now := s.now()
	profile.LastSeenAt = &now
	s.bg.Go(ctx, "profile.touch_last_seen", func(ctx context.Context) error {
		return s.users.TouchLastSeen(ctx, userID, now)
	})
	return profile, nil
}

func (s *ProfileService) load(ctx context.Context, userID string) (cache.Profile, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache read failed")
		} else if ok {
			return p, nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return cache.Profile{}, apperr.New(apperr.UserNotFound, "profile.load", "user not found")
		}
		return cache.Profile{}, apperr.Wrap(apperr.RemoteStoreError, "profile.load", err)
	}

	p := cache.ProfileFromUser(user)
	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
		}
	}
	return p, nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidate failed")
	}
}

type UpdateProfileInput struct {
	Handle *string
	Status *string
}

func (s *ProfileService) UpdateProfile(ctx context.Context, user models.User, input UpdateProfileInput) (cache.Profile, error) {
	const op = "profile.update_profile"

	if input.Handle == nil && input.Status == nil {
		return cache.Profile{}, apperr.New(apperr.InvalidInput, op, "nothing to update")
	}
	if input.Handle != nil {
		handle := strings.TrimSpace(*input.Handle)
		if !handlePattern.MatchString(handle) {
			return cache.Profile{}, apperr.New(apperr.InvalidInput, op, "handle must be 3-32 letters, digits, '_' or '.'")
		}
		if handle == user.Handle {
			input.Handle = nil
		} else {
			exists, err := s.users.HandleExists(ctx, handle)
			if err != nil {
				return cache.Profile{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
			}
			if exists {
				return cache.Profile{}, apperr.New(apperr.DuplicateIdentifier, op, "handle already taken")
			}
			input.Handle = &handle
		}
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if len([]rune(status)) > maxStatusLen {
			return cache.Profile{}, apperr.Newf(apperr.InvalidInput, op, "status must be at most %d characters", maxStatusLen)
		}
		input.Status = &status
	}

	if input.Handle != nil || input.Status != nil {
		if err := s.users.UpdateProfile(ctx, user.ID, input.Handle, input.Status); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return cache.Profile{}, apperr.New(apperr.DuplicateIdentifier, op, "handle already taken")
			case errors.Is(err, repository.ErrUserNotFound):
				return cache.Profile{}, apperr.New(apperr.UserNotFound, op, "user not found")
			default:
				return cache.Profile{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
			}
		}
		s.invalidate(ctx, user.ID)
	}

	s.audit.UserAction(ctx, user.ID, "update_profile")

	profile, err := s.load(ctx, user.ID)
	if err != nil {
		return cache.Profile{}, apperr.Wrap(apperr.KindOf(err), op, err)
	}
	return profile, nil
}

// UploadPicture stores a JPEG under profile_images/{userId}/ and writes
// its URL back to the user.
func (s *ProfileService) UploadPicture(ctx context.Context, userID string, data []byte) (string, error) {
	const op = "profile.upload_picture"

	if len(data) == 0 || len(data) > maxProfileImageLen {
		return "", apperr.New(apperr.InvalidInput, op, "profile picture must be between 1 byte and 5 MiB")
	}
	if _, err := sniffer.ProfileImage(data); err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, op, err)
	}

	url, err := s.images.PutProfileImage(ctx, userID, uuid.NewString(), data)
	if err != nil {
		return "", apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if err := s.users.SetProfilePicture(ctx, userID, url); err != nil {
		return "", apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	s.invalidate(ctx, userID)
	s.audit.UserAction(ctx, userID, "update_profile_picture")
	return url, nil
}

func (s *ProfileService) SetFCMToken(ctx context.Context, userID, token string) error {
	if err := s.users.SetFCMToken(ctx, userID, strings.TrimSpace(token)); err != nil {
		return apperr.Wrap(apperr.RemoteStoreError, "profile.fcm_token", err)
	}
	return nil
}

type Presence struct {
	UserID     string
	Handle     string
	Online     bool
	LastSeenAt *time.Time
}

func (s *ProfileService) Presence(ctx context.Context, userID string) (Presence, error) {
	const op = "profile.presence"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Presence{}, apperr.New(apperr.UserNotFound, op, "user not found")
		}
		return Presence{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return Presence{
		UserID:     user.ID,
		Handle:     user.Handle,
		Online:     user.OnlineAt(s.now()),
		LastSeenAt: user.LastSeenAt,
	}, nil
}

// Directory lists other users, optionally filtered by a handle fragment.
func (s *ProfileService) Directory(ctx context.Context, me models.User, query string, limit, offset int) ([]cache.Profile, error) {
	users, err := s.users.Search(ctx, strings.TrimSpace(query), me.ID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteStoreError, "profile.directory", err)
	}
	out := make([]cache.Profile, 0, len(users))
	for _, u := range users {
		p := cache.ProfileFromUser(u)
		p.Email = ""
		out = append(out, p)
	}
	return out, nil
}
