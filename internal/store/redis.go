package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/config"
)

// NewRedisClient connects to the configured Redis server.
func NewRedisClient(cfg *config.RedisEnvConfig) (rueidis.Client, error) {
	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr()},
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		SelectDB:    cfg.RedisDB,
	})
}

// RedisStore keeps each record as a JSON string under a namespaced key.
type RedisStore struct {
	client rueidis.Client
	prefix string
}

func NewRedisStore(client rueidis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "walletlink"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) linkageKey(substratePubkey string) string {
	return fmt.Sprintf("%s:linkage:%s", r.prefix, strings.ToLower(substratePubkey))
}

func (r *RedisStore) registrationKey(userID, walletType string) string {
	return fmt.Sprintf("%s:registration:%s:%s", r.prefix, userID, strings.ToLower(walletType))
}

func (r *RedisStore) set(ctx context.Context, key string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Do(ctx, r.client.B().Set().Key(key).Value(string(data)).Build()).Error(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("redis set failed")
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) SaveLinkage(ctx context.Context, rec *LinkageRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	return r.set(ctx, r.linkageKey(rec.SubstratePubkey), rec)
}

func (r *RedisStore) FindLinkage(ctx context.Context, substratePubkey string) (*LinkageRecord, error) {
	key := r.linkageKey(substratePubkey)
	resp := r.client.Do(ctx, r.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("redis get failed")
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	raw, err := resp.ToString()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var rec LinkageRecord
	if err := sonic.UnmarshalString(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &rec, nil
}

func (r *RedisStore) SaveRegistration(ctx context.Context, rec *RegistrationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	return r.set(ctx, r.registrationKey(rec.UserID, rec.WalletType), rec)
}

func (r *RedisStore) Close() error {
	r.client.Close()
	return nil
}
