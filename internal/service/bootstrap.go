package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/repository"
	"github.com/SG-STD/ofox-backend/internal/security"
)

// Bootstrap loads the shared secret from config/encryption_key once.
// Until it succeeds, gated operations fail with NetworkUnavailable and
// each call retries the load.
type Bootstrap struct {
	config   ConfigStore
	log      zerolog.Logger
	mu       sync.Mutex
	obscurer atomic.Pointer[security.Obscurer]
}

func NewBootstrap(config ConfigStore, log zerolog.Logger) *Bootstrap {
	return &Bootstrap{config: config, log: log}
}

func (b *Bootstrap) Ready(ctx context.Context) error {
	if b.obscurer.Load() != nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.obscurer.Load() != nil {
		return nil
	}

	secret, err := b.config.Get(ctx, repository.PathEncryptionKey)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return apperr.New(apperr.NetworkUnavailable, "bootstrap", "encryption key is not provisioned")
		}
		return apperr.Wrap(apperr.NetworkUnavailable, "bootstrap", err)
	}
	if secret == "" {
		return apperr.New(apperr.NetworkUnavailable, "bootstrap", "encryption key is empty")
	}

	b.obscurer.Store(security.NewObscurer(secret))
	b.log.Info().Msg("encryption key loaded")
	return nil
}

// Obscurer returns the loaded obscurer, or an identity obscurer before
// the secret is available.
func (b *Bootstrap) Obscurer() *security.Obscurer {
	if o := b.obscurer.Load(); o != nil {
		return o
	}
	return security.NewObscurer("")
}
