package service

import (
	"context"
	"errors"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/repository"
)

var legalPaths = map[string]string{
	"privacy-policy":   repository.PathPrivacyPolicy,
	"terms-of-service": repository.PathTermsOfService,
}

type LegalService struct {
	config ConfigStore
}

func NewLegalService(config ConfigStore) *LegalService {
	return &LegalService{config: config}
}

func (s *LegalService) Document(ctx context.Context, name string) (string, error) {
	const op = "legal.document"

	path, ok := legalPaths[name]
	if !ok {
		return "", apperr.Newf(apperr.NotFound, op, "unknown document %q", name)
	}
	text, err := s.config.Get(ctx, path)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return "", apperr.New(apperr.NotFound, op, "document not published")
		}
		return "", apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return text, nil
}
