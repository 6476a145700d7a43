// Package registry records wallet linkages and registrations on behalf of a
// platform user, applying role and allowlist policy around the verification core.
package registry

import (
	"errors"

	"github.com/tensorplex-labs/walletlink/internal/store"
)

var (
	ErrNotAllowlisted        = errors.New("substrate account is not on the allowlist")
	ErrRoleNotPermitted      = errors.New("you do not have the proper role to use this command")
	ErrUnsupportedWalletType = errors.New("unsupported wallet type")
	ErrInvalidAddress        = errors.New("the provided wallet address is invalid")
	ErrMissingRequester      = errors.New("requester identity is required")
)

// Wallet types accepted by Register.
const (
	WalletMoonriver = "Moonriver"
	WalletMoonbeam  = "Moonbeam"
	WalletKusama    = "Kusama"
)

// Requester is the identity and role context supplied by the host platform.
type Requester struct {
	UserID    string
	UserTag   string
	Roles     []string
	AvatarURL string
}

type RegisterResult struct {
	Record *store.RegistrationRecord `json:"record"`
	// GrantRole is the platform role the caller should apply, empty if none.
	GrantRole string `json:"grant_role,omitempty"`
}
