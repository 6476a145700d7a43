package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/registry"
	"github.com/tensorplex-labs/walletlink/internal/store"
	"github.com/tensorplex-labs/walletlink/pkg/linkage"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(createResponse(HealthResponse{Status: "ok"}, nil))
}

func (s *Server) handleLink(c *fiber.Ctx) error {
	var req LinkRequest
	if err := c.BodyParser(&req); err != nil {
		log.Error().Err(err).Str("route", "/link").Msg("Failed to parse request body")
		return c.Status(fiber.StatusBadRequest).
			JSON(createResponse(map[string]interface{}{}, errors.New("invalid request body")))
	}

	rec, err := s.registry.Link(c.UserContext(), GetRequester(c), req.SubstrateAddress, req.EvmAddress, req.Signature)
	if err != nil {
		return writeError[*store.LinkageRecord](c, err)
	}
	return c.JSON(createResponse(rec, nil))
}

func (s *Server) handleLookup(c *fiber.Ctx) error {
	rec, err := s.registry.Lookup(c.UserContext(), c.Params("substrate"))
	if err != nil {
		return writeError[*store.LinkageRecord](c, err)
	}
	return c.JSON(createResponse(rec, nil))
}

func (s *Server) handleWallet(c *fiber.Ctx) error {
	var req WalletRequest
	if err := c.BodyParser(&req); err != nil {
		log.Error().Err(err).Str("route", "/wallet").Msg("Failed to parse request body")
		return c.Status(fiber.StatusBadRequest).
			JSON(createResponse(map[string]interface{}{}, errors.New("invalid request body")))
	}

	res, err := s.registry.Register(c.UserContext(), GetRequester(c), req.Type, req.Address)
	if err != nil {
		return writeError[*registry.RegisterResult](c, err)
	}
	return c.JSON(createResponse(res, nil))
}

// writeError maps a registry error to a status code and a message safe to show
// the end user. Wrapped causes are logged, never returned.
func writeError[T any](c *fiber.Ctx, err error) error {
	status, msg := classify(err)
	log.Warn().Err(err).Int("status_code", status).Str("path", c.Path()).Msg("request rejected")

	var zero T
	return c.Status(status).JSON(createResponse(zero, errors.New(msg)))
}

func classify(err error) (int, string) {
	switch linkage.KindOf(err) {
	case linkage.KindInvalidSubstrateAddress, linkage.KindInvalidEvmAddress, linkage.KindInvalidSignatureEncoding:
		return fiber.StatusBadRequest, linkage.KindOf(err).String()
	case linkage.KindVerificationFailed:
		return fiber.StatusForbidden, linkage.KindOf(err).String()
	case linkage.KindUpstreamFailure:
		return fiber.StatusBadGateway, "something went wrong while trying to record your details"
	}

	switch {
	case errors.Is(err, registry.ErrNotAllowlisted), errors.Is(err, registry.ErrRoleNotPermitted):
		return fiber.StatusForbidden, rootMessage(err)
	case errors.Is(err, registry.ErrInvalidAddress), errors.Is(err, registry.ErrUnsupportedWalletType):
		return fiber.StatusBadRequest, rootMessage(err)
	case errors.Is(err, registry.ErrMissingRequester):
		return fiber.StatusUnauthorized, rootMessage(err)
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, store.ErrNotFound.Error()
	}
	return fiber.StatusInternalServerError, "internal error"
}

// rootMessage returns the text of the registry sentinel inside err.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		registry.ErrNotAllowlisted,
		registry.ErrRoleNotPermitted,
		registry.ErrInvalidAddress,
		registry.ErrUnsupportedWalletType,
		registry.ErrMissingRequester,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}
