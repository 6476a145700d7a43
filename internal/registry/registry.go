package registry

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/allowlist"
	"github.com/tensorplex-labs/walletlink/internal/config"
	"github.com/tensorplex-labs/walletlink/internal/store"
	"github.com/tensorplex-labs/walletlink/pkg/address"
	"github.com/tensorplex-labs/walletlink/pkg/linkage"
)

type Linker interface {
	VerifyLinkage(claimedSubstrate, claimedEvm, claimedSignature string) (*linkage.VerifiedLinkage, error)
}

type Registry struct {
	linker    Linker
	allowlist allowlist.Checker
	store     store.Store
	roles     config.RoleEnvConfig
}

func New(linker Linker, checker allowlist.Checker, s store.Store, roles config.RoleEnvConfig) *Registry {
	if linker == nil {
		linker = linkage.NewService(nil)
	}
	if checker == nil {
		checker = allowlist.AllowAll{}
	}
	return &Registry{linker: linker, allowlist: checker, store: s, roles: roles}
}

// permittedRoles returns the requester's roles that are configured as valid.
func (r *Registry) permittedRoles(req Requester) []string {
	var out []string
	for _, role := range req.Roles {
		if r.roles.IsValidRole(role) {
			out = append(out, role)
		}
	}
	return out
}

// hasSingleValidRole holds when the requester carries exactly one configured role.
func (r *Registry) hasSingleValidRole(req Requester) bool {
	return len(r.permittedRoles(req)) == 1
}

// Link verifies the proof, checks the allowlist and records the linkage.
func (r *Registry) Link(ctx context.Context, req Requester, substrate, evm, sig string) (*store.LinkageRecord, error) {
	if req.UserID == "" {
		return nil, ErrMissingRequester
	}
	if r.roles.LinkRequireRole && !r.hasSingleValidRole(req) {
		log.Warn().Str("user_id", req.UserID).Strs("roles", req.Roles).Msg("link refused, role not permitted")
		return nil, ErrRoleNotPermitted
	}

	linked, err := r.linker.VerifyLinkage(substrate, evm, sig)
	if err != nil {
		log.Info().Err(err).Str("user_id", req.UserID).Msg("linkage rejected")
		return nil, err
	}

	allowed, err := r.allowlist.IsAllowed(ctx, linked.SubstratePubkey)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("allowlist lookup failed")
		return nil, linkage.Upstream(fmt.Errorf("allowlist: %w", err))
	}
	if !allowed {
		log.Info().Str("user_id", req.UserID).Msg("linkage refused, account not allowlisted")
		return nil, ErrNotAllowlisted
	}

	pub := address.SubstrateAddress{PublicKey: linked.SubstratePubkey, Network: linked.Network}
	rec := &store.LinkageRecord{
		UserID:           req.UserID,
		UserTag:          req.UserTag,
		SubstrateAddress: pub.SS58(linked.Network),
		SubstratePubkey:  pub.Hex(),
		EvmAddress:       "0x" + hex.EncodeToString(linked.EvmAddress[:]),
		Scheme:           linked.Scheme.String(),
		Roles:            nonNil(req.Roles),
		AvatarURL:        req.AvatarURL,
	}
	if err := r.store.SaveLinkage(ctx, rec); err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("could not save wallet details")
		return nil, linkage.Upstream(fmt.Errorf("save linkage: %w", err))
	}

	log.Info().
		Str("user_id", req.UserID).
		Str("substrate", rec.SubstrateAddress).
		Str("evm", rec.EvmAddress).
		Str("scheme", rec.Scheme).
		Msg("linkage recorded")
	return rec, nil
}

// Register records a wallet address without a signature. Kusama registrations
// return the configured post role for the platform to grant.
func (r *Registry) Register(ctx context.Context, req Requester, walletType, addr string) (*RegisterResult, error) {
	if req.UserID == "" {
		return nil, ErrMissingRequester
	}
	if !r.hasSingleValidRole(req) {
		log.Warn().Str("user_id", req.UserID).Strs("roles", req.Roles).Msg("registration refused, role not permitted")
		return nil, ErrRoleNotPermitted
	}

	canonical, err := validateWallet(walletType, addr)
	if err != nil {
		return nil, err
	}

	rec := &store.RegistrationRecord{
		UserID:     req.UserID,
		UserTag:    req.UserTag,
		WalletType: walletType,
		Address:    canonical,
		Roles:      nonNil(req.Roles),
		AvatarURL:  req.AvatarURL,
	}
	if err := r.store.SaveRegistration(ctx, rec); err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("could not save the record")
		return nil, linkage.Upstream(fmt.Errorf("save registration: %w", err))
	}

	result := &RegisterResult{Record: rec}
	if walletType == WalletKusama {
		result.GrantRole = r.roles.PostRoleID
	}
	return result, nil
}

// Lookup returns the recorded linkage for an ss58 address.
func (r *Registry) Lookup(ctx context.Context, substrate string) (*store.LinkageRecord, error) {
	a, err := address.ValidateSubstrate(substrate)
	if err != nil {
		return nil, linkage.ErrInvalidSubstrateAddress
	}

	rec, err := r.store.FindLinkage(ctx, a.Hex())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, linkage.Upstream(fmt.Errorf("find linkage: %w", err))
	}
	return rec, nil
}

// validateWallet checks addr against the encoding implied by walletType and
// returns the form to store.
func validateWallet(walletType, addr string) (string, error) {
	switch walletType {
	case WalletMoonriver, WalletMoonbeam:
		evm, err := address.ValidateEvm(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return evm.Hex(), nil
	case WalletKusama:
		substrate, err := address.ValidateSubstrate(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return substrate.SS58(substrate.Network), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedWalletType, walletType)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
