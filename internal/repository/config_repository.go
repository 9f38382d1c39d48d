package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const (
	PathEncryptionKey  = "config/encryption_key"
	PathPrivacyPolicy  = "legal/privacy_policy"
	PathTermsOfService = "legal/terms_of_service"
)

var ErrConfigNotFound = errors.New("config value not found")

// ConfigRepository reads path-addressed values from app_config.
type ConfigRepository struct {
	db DB
}

func NewConfigRepository(db DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Get(ctx context.Context, path string) (string, error) {
	var value string
	if err := r.db.QueryRow(ctx, `SELECT value FROM app_config WHERE path = $1`, path).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrConfigNotFound
		}
		return "", err
	}
	return value, nil
}
