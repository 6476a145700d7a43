package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/allowlist"
	"github.com/tensorplex-labs/walletlink/internal/api"
	"github.com/tensorplex-labs/walletlink/internal/config"
	"github.com/tensorplex-labs/walletlink/internal/registry"
	"github.com/tensorplex-labs/walletlink/internal/store"
	"github.com/tensorplex-labs/walletlink/internal/utils/logger"
	"github.com/tensorplex-labs/walletlink/pkg/linkage"
)

func main() {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	var redisClient rueidis.Client
	if cfg.AllowlistBackend == config.AllowlistRedis {
		redisClient, err = store.NewRedisClient(&cfg.RedisEnvConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis for allowlist")
		}
		defer redisClient.Close()
	}

	checker, err := allowlist.New(cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.AllowlistBackend).Msg("failed to build allowlist")
	}

	reg := registry.New(linkage.NewService(nil), checker, s, cfg.RoleEnvConfig)

	server := api.NewServer(&api.ServerConfig{
		Host:      cfg.ServerEnvConfig.Host,
		Port:      cfg.ServerEnvConfig.Port,
		BodyLimit: cfg.BodySizeLimit,
	}, reg)

	log.Info().
		Str("addr", cfg.ServerEnvConfig.Addr()).
		Str("store", cfg.StoreBackend).
		Str("allowlist", cfg.AllowlistBackend).
		Msg("walletlink server starting")

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
}
