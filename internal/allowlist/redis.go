package allowlist

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog/log"
)

// Redis checks membership in a set of 0x-prefixed lowercase hex public keys
// stored at <prefix>:allowlist.
type Redis struct {
	client rueidis.Client
	key    string
}

func NewRedis(client rueidis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "walletlink"
	}
	return &Redis{client: client, key: prefix + ":allowlist"}
}

func (r *Redis) IsAllowed(ctx context.Context, pubkey PublicKey) (bool, error) {
	member := pubkeyHex(pubkey)
	resp := r.client.Do(ctx, r.client.B().Sismember().Key(r.key).Member(member).Build())
	n, err := resp.AsInt64()
	if err != nil {
		log.Error().Err(err).Str("key", r.key).Msg("allowlist lookup failed")
		return false, fmt.Errorf("sismember %s: %w", r.key, err)
	}
	return n == 1, nil
}
