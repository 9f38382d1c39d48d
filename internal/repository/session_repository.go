package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SG-STD/ofox-backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO sessions (
			handle, id, user_id, device_name, device_type, created_at, last_active_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		session.Handle,
		session.ID,
		session.UserID,
		session.DeviceName,
		session.DeviceType,
	)
	return err
}

func (r *SessionRepository) CountByHandle(ctx context.Context, handle string) (int, error) {
	row := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE handle = $1`, handle)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) DeleteOldestSessions(ctx context.Context, handle string, keepLatest int) error {
	const query = `
		DELETE FROM sessions
		WHERE handle = $1 AND id IN (
			SELECT id FROM sessions
			WHERE handle = $1
			ORDER BY last_active_at DESC
			OFFSET $2
		)
	`
	_, err := r.db.Exec(ctx, query, handle, keepLatest)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	const query = `
		SELECT handle, id, user_id, device_name, device_type, created_at, last_active_at
		FROM sessions
		WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	var session models.Session
	if err := row.Scan(
		&session.Handle,
		&session.ID,
		&session.UserID,
		&session.DeviceName,
		&session.DeviceType,
		&session.CreatedAt,
		&session.LastActiveAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// DeleteByID removes a session owned by userID.
func (r *SessionRepository) DeleteByID(ctx context.Context, userID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) ListByHandle(ctx context.Context, handle string) ([]models.Session, error) {
	const query = `
		SELECT handle, id, user_id, device_name, device_type, created_at, last_active_at
		FROM sessions
		WHERE handle = $1
		ORDER BY last_active_at DESC
	`

	rows, err := r.db.Query(ctx, query, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.Handle,
			&session.ID,
			&session.UserID,
			&session.DeviceName,
			&session.DeviceType,
			&session.CreatedAt,
			&session.LastActiveAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET last_active_at = NOW() WHERE id = $1`, id)
	return err
}

// DeleteIdle removes sessions not active since before and reports how many.
func (r *SessionRepository) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE last_active_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
