package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/config"
)

// New opens the backend selected by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.AppConfig) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		client, err := NewRedisClient(&cfg.RedisEnvConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisEnvConfig.Addr()).Msg("using redis store")
		return NewRedisStore(client, cfg.RedisKeyPrefix), nil
	case config.StoreBackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("using postgres store")
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// stamp fills the id and creation time the first time a record is saved.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
