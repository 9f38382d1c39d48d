package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SG-STD/ofox-backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, handle, email, password_hash, profile_picture, status, registered_at,
	last_login_at, last_seen_at, is_online, is_banned, email_verified, fcm_token`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Handle,
		&user.Email,
		&user.PasswordHash,
		&user.ProfilePicture,
		&user.Status,
		&user.RegisteredAt,
		&user.LastLoginAt,
		&user.LastSeenAt,
		&user.IsOnline,
		&user.IsBanned,
		&user.EmailVerified,
		&user.FCMToken,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func insertUser(ctx context.Context, db DB, user models.User) error {
	const query = `
		INSERT INTO users (
			id, handle, email, password_hash, profile_picture, status, registered_at,
			last_login_at, last_seen_at, is_online, is_banned, email_verified
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`
	_, err := db.Exec(ctx, query,
		user.ID,
		user.Handle,
		user.Email,
		user.PasswordHash,
		user.ProfilePicture,
		user.Status,
		user.RegisteredAt,
		user.LastLoginAt,
		user.LastSeenAt,
		user.IsOnline,
		user.IsBanned,
		user.EmailVerified,
	)
	return mapWriteErr(err)
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	return insertUser(ctx, r.db, user)
}

// CreateFromPending inserts user and removes the pending registration
// stored under emailKey in one transaction.
func (r *UserRepository) CreateFromPending(ctx context.Context, user models.User, emailKey string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM pending_users WHERE email_key = $1`, emailKey)
		return err
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByHandle(ctx context.Context, handle string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE handle = $1`, handle)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) HandleExists(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE handle = $1)`, handle).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE users SET last_login_at = $2, last_seen_at = $2 WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}

// UpdateProfile changes handle and/or status. A handle change also re-keys
// the user's sessions.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, handle, status *string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `SELECT handle FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}

		const query = `
			UPDATE users
			SET handle = COALESCE($2, handle),
			    status = COALESCE($3, status)
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query, id, handle, status); err != nil {
			return mapWriteErr(err)
		}

		if handle == nil || *handle == current {
			return nil
		}
		_, err := tx.Exec(ctx, `UPDATE sessions SET handle = $2 WHERE user_id = $1`, id, *handle)
		return err
	})
}

func (r *UserRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET profile_picture = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetFCMToken(ctx context.Context, id, token string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET fcm_token = NULLIF($2, '') WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Search lists users other than excludeID whose handle contains query.
func (r *UserRepository) Search(ctx context.Context, query, excludeID string, limit, offset int) ([]models.User, error) {
	const stmt = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1 AND ($2 = '' OR handle ILIKE '%' || $2 || '%')
		ORDER BY handle
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, stmt, excludeID, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
