package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SG-STD/ofox-backend/internal/models"
)

var ErrPendingNotFound = errors.New("pending registration not found")

// EmailKey normalises an email into the pending_users key: lower-cased,
// trimmed and with '.' replaced by ','.
func EmailKey(email string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(email)), ".", ",")
}

type PendingRepository struct {
	db DB
}

func NewPendingRepository(db DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// Save writes p, replacing any earlier registration for the same email.
func (r *PendingRepository) Save(ctx context.Context, p models.PendingRegistration) error {
	const query = `
		INSERT INTO pending_users (
			email_key, email, handle, password_hash, profile_picture, verification_code, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (email_key)
		DO UPDATE SET
			email = EXCLUDED.email,
			handle = EXCLUDED.handle,
			password_hash = EXCLUDED.password_hash,
			profile_picture = EXCLUDED.profile_picture,
			verification_code = EXCLUDED.verification_code,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Exec(ctx, query,
		p.EmailKey,
		p.Email,
		p.Handle,
		p.PasswordHash,
		p.ProfilePicture,
		p.Code,
		p.CreatedAt,
		p.ExpiresAt,
	)
	return err
}

func (r *PendingRepository) Get(ctx context.Context, emailKey string) (models.PendingRegistration, error) {
	const query = `
		SELECT email_key, email, handle, password_hash, profile_picture, verification_code, created_at, expires_at
		FROM pending_users
		WHERE email_key = $1
	`
	var p models.PendingRegistration
	if err := r.db.QueryRow(ctx, query, emailKey).Scan(
		&p.EmailKey,
		&p.Email,
		&p.Handle,
		&p.PasswordHash,
		&p.ProfilePicture,
		&p.Code,
		&p.CreatedAt,
		&p.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PendingRegistration{}, ErrPendingNotFound
		}
		return models.PendingRegistration{}, err
	}
	return p, nil
}

func (r *PendingRepository) UpdateCode(ctx context.Context, emailKey, code string, expiresAt time.Time) error {
	const query = `
		UPDATE pending_users SET verification_code = $2, expires_at = $3 WHERE email_key = $1
	`
	cmd, err := r.db.Exec(ctx, query, emailKey, code, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPendingNotFound
	}
	return nil
}

func (r *PendingRepository) Delete(ctx context.Context, emailKey string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_users WHERE email_key = $1`, emailKey)
	return err
}

// DeleteExpired removes registrations that expired before cutoff.
func (r *PendingRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM pending_users WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
