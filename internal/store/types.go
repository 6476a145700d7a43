// Package store persists verified linkages and plain wallet registrations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("record not found")

// LinkageRecord is a verified substrate/EVM linkage plus the audit fields of the
// requester that submitted it.
type LinkageRecord struct {
	bun.BaseModel `bun:"table:signed_linkage" json:"-"`

	ID               string    `bun:"id,pk" json:"id"`
	UserID           string    `bun:"user_id,notnull" json:"user_id"`
	UserTag          string    `bun:"user_tag" json:"user_tag"`
	SubstrateAddress string    `bun:"substrate_address,notnull" json:"substrate_address"`
	SubstratePubkey  string    `bun:"substrate_pubkey,notnull,unique" json:"substrate_pubkey"`
	EvmAddress       string    `bun:"evm_address,notnull" json:"evm_address"`
	Scheme           string    `bun:"scheme,notnull" json:"scheme"`
	Roles            []string  `bun:"roles,array" json:"roles"`
	AvatarURL        string    `bun:"avatar_url" json:"avatar_url"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

// RegistrationRecord is an unsigned wallet registration.
type RegistrationRecord struct {
	bun.BaseModel `bun:"table:wallet_registration" json:"-"`

	ID         string    `bun:"id,pk" json:"id"`
	UserID     string    `bun:"user_id,notnull" json:"user_id"`
	UserTag    string    `bun:"user_tag" json:"user_tag"`
	WalletType string    `bun:"wallet_type,notnull" json:"wallet_type"`
	Address    string    `bun:"address,notnull" json:"address"`
	Roles      []string  `bun:"roles,array" json:"roles"`
	AvatarURL  string    `bun:"avatar_url" json:"avatar_url"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

type Store interface {
	// SaveLinkage upserts by substrate public key; a newer proof replaces an older one.
	SaveLinkage(ctx context.Context, rec *LinkageRecord) error
	// FindLinkage returns ErrNotFound when no linkage exists for the key.
	FindLinkage(ctx context.Context, substratePubkey string) (*LinkageRecord, error)
	// SaveRegistration upserts by user and wallet type.
	SaveRegistration(ctx context.Context, rec *RegistrationRecord) error
	Close() error
}
