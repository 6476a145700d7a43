package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStoreLinkageUpsert(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	pubkey := "0x" + uuid.NewString()

	first := &LinkageRecord{
		UserID:           "1",
		SubstrateAddress: "14AkzFjCFtdwzCJnnfPxgwL87W1h7AHFdzjKh9q9YaojWFxx",
		SubstratePubkey:  pubkey,
		EvmAddress:       "0xb794f5ea0ba39494ce839613fffba74279579268",
		Scheme:           "sr25519",
		Roles:            []string{"Holder"},
	}
	require.NoError(t, s.SaveLinkage(ctx, first))

	second := *first
	second.ID = ""
	second.UserID = "2"
	second.Scheme = "ed25519"
	require.NoError(t, s.SaveLinkage(ctx, &second))

	got, err := s.FindLinkage(ctx, pubkey)
	require.NoError(t, err)
	assert.Equal(t, "2", got.UserID)
	assert.Equal(t, "ed25519", got.Scheme)
	assert.Equal(t, []string{"Holder"}, got.Roles)

	_, err = s.FindLinkage(ctx, "0xmissing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresStoreRegistrationUpsert(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	user := uuid.NewString()

	require.NoError(t, s.SaveRegistration(ctx, &RegistrationRecord{UserID: user, WalletType: "Moonriver", Address: "0x01"}))
	require.NoError(t, s.SaveRegistration(ctx, &RegistrationRecord{UserID: user, WalletType: "Moonriver", Address: "0x02"}))
}
