// Package allowlist answers whether a verified substrate account is eligible to
// have its linkage recorded.
package allowlist

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/config"
	"github.com/tensorplex-labs/walletlink/pkg/address"
)

type PublicKey = [address.PublicKeyLength]byte

type Checker interface {
	IsAllowed(ctx context.Context, pubkey PublicKey) (bool, error)
}

// AllowAll accepts every account.
type AllowAll struct{}

func (AllowAll) IsAllowed(context.Context, PublicKey) (bool, error) {
	return true, nil
}

// Static is a fixed set of accounts.
type Static struct {
	keys map[PublicKey]struct{}
}

// NewStatic decodes ss58 addresses into a set; any invalid entry is an error.
func NewStatic(addresses []string) (*Static, error) {
	keys := make(map[PublicKey]struct{}, len(addresses))
	for _, a := range addresses {
		decoded, err := address.ValidateSubstrate(a)
		if err != nil {
			return nil, fmt.Errorf("allowlist entry %q: %w", a, err)
		}
		keys[decoded.PublicKey] = struct{}{}
	}
	return &Static{keys: keys}, nil
}

func (s *Static) IsAllowed(_ context.Context, pubkey PublicKey) (bool, error) {
	_, ok := s.keys[pubkey]
	return ok, nil
}

// New builds the checker selected by cfg.AllowlistBackend. redisClient is only
// used by the redis backend and may be nil otherwise.
func New(cfg *config.AppConfig, redisClient rueidis.Client) (Checker, error) {
	switch cfg.AllowlistBackend {
	case config.AllowlistNone, "":
		return AllowAll{}, nil
	case config.AllowlistStatic:
		log.Info().Int("entries", len(cfg.AllowlistAddresses)).Msg("using static allowlist")
		return NewStatic(cfg.AllowlistAddresses)
	case config.AllowlistRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis allowlist needs a redis client")
		}
		return NewRedis(redisClient, cfg.RedisKeyPrefix), nil
	case config.AllowlistHTTP:
		return NewHTTP(cfg.AllowlistURL, cfg.AllowlistTimeout)
	}
	return nil, fmt.Errorf("unknown allowlist backend %q", cfg.AllowlistBackend)
}

func pubkeyHex(pubkey PublicKey) string {
	return "0x" + hex.EncodeToString(pubkey[:])
}
