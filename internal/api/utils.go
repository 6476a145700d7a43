package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/walletlink/internal/registry"
)

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

// requesterFromHeaders reads the identity headers the host platform attaches.
func requesterFromHeaders(c *fiber.Ctx) registry.Requester {
	var roles []string
	for _, role := range strings.Split(c.Get(UserRolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}

	return registry.Requester{
		UserID:    strings.TrimSpace(c.Get(UserIDHeader)),
		UserTag:   c.Get(UserTagHeader),
		Roles:     roles,
		AvatarURL: c.Get(UserAvatarHeader),
	}
}

// GetRequester returns the requester stored by RequesterMiddleware.
func GetRequester(c *fiber.Ctx) registry.Requester {
	if req, ok := c.Locals(requesterLocal).(registry.Requester); ok {
		return req
	}
	return requesterFromHeaders(c)
}
