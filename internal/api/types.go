package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/walletlink/internal/registry"
)

const (
	UserIDHeader     string = "x-user-id"
	UserTagHeader    string = "x-user-tag"
	UserRolesHeader  string = "x-user-roles"
	UserAvatarHeader string = "x-user-avatar"

	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 1024 * 1024 // 1MB

	requesterLocal = "requester"
)

// Server serves the linkage API.
type Server struct {
	App      *fiber.App
	config   *ServerConfig
	registry *registry.Registry
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

type LinkRequest struct {
	SubstrateAddress string `json:"substrate_address"`
	EvmAddress       string `json:"evm_address"`
	Signature        string `json:"signature"`
}

type WalletRequest struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
