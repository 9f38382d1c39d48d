package repository

import (
	"context"

	"github.com/SG-STD/ofox-backend/internal/models"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertAuth(ctx context.Context, entry models.AuthLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_logs (identifier, action, timestamp) VALUES ($1, $2, $3)`,
		entry.Identifier, entry.Action, entry.Timestamp,
	)
	return err
}

func (r *AuditRepository) InsertUserAction(ctx context.Context, entry models.UserActionLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_action_logs (user_id, action, timestamp) VALUES ($1, $2, $3)`,
		entry.UserID, entry.Action, entry.Timestamp,
	)
	return err
}
