package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/backend/rest"
	"tasksync/internal/config"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// NewService builds the gateway cfg selects.
//
// The rest backend gets a session over the stored credential. When the
// gateway rejects it, token.json is removed so the next command asks for a
// new login.
func NewService(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Service, error) {
	if cfg.Backend == config.BackendGoogleTasks {
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("%w: oauth_client.json not found in %s", service.ErrUnauthorized, cfg.Dir)
		}
		return googletasks.New(ctx, cfg, log)
	}

	tok, err := session.Load(cfg.TokenPath())
	if err != nil {
		if errors.Is(err, session.ErrNoCredential) {
			return nil, fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
		}
		return nil, err
	}

	sess := session.New(tok, func() {
		if err := cfg.RemoveToken(); err != nil {
			log.Warn("failed to remove rejected credential", zap.Error(err))
			return
		}
		log.Debug("credential rejected, token removed")
	})
	if _, err := sess.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
	}

	return rest.New(cfg.APIURL, sess, rest.WithLogger(log), rest.WithTimeout(cfg.Timeout)), nil
}
