// Package api exposes the linkage registry over HTTP for platform adapters.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/registry"
)

// NewServer creates the API server and registers its routes.
func NewServer(serverConfig *ServerConfig, reg *registry.Registry) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{
			Host:      DefaultServerHost,
			Port:      DefaultServerPort,
			BodyLimit: DefaultBodyLimit,
		}
	}
	if serverConfig.BodyLimit == 0 {
		serverConfig.BodyLimit = DefaultBodyLimit
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodyLimit,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	whitelistedRoutes := []string{"/health"}
	app.Use(ZstdMiddleware(whitelistedRoutes))
	app.Use(RequesterMiddleware(whitelistedRoutes))

	server := &Server{
		App:      app,
		config:   serverConfig,
		registry: reg,
	}

	app.Get("/health", server.handleHealth)
	app.Post("/link", server.handleLink)
	app.Get("/link/:substrate", server.handleLookup)
	app.Post("/wallet", server.handleWallet)

	return server
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]interface{}{}, err))
}

// Start listens until ctx is cancelled, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		errCh <- s.App.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	return s.App.Shutdown()
}
