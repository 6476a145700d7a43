// Package signature verifies substrate account signatures. A generic substrate
// account id is curve agnostic, so the same 32 bytes are tried as an sr25519 key
// and then as an ed25519 key.
package signature

import "errors"

const (
	PublicKeyLength = 32
	SignatureLength = 64
)

var (
	ErrInvalidSignatureEncoding = errors.New("invalid signature encoding")
	ErrSmallOrderKey            = errors.New("ed25519 public key has small order")
)

// Scheme names the curve that accepted a signature.
type Scheme int

const (
	SchemeSr25519 Scheme = iota + 1
	SchemeEd25519
)

func (s Scheme) String() string {
	switch s {
	case SchemeSr25519:
		return "sr25519"
	case SchemeEd25519:
		return "ed25519"
	}
	return "unknown"
}

// MarshalText lets records carry the scheme name instead of its ordinal.
func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the aggregate result of all verification attempts.
type Outcome int

const (
	Invalid Outcome = iota
	Sr25519Valid
	Ed25519Valid
)

// Scheme reports the scheme behind a valid outcome, or zero for Invalid.
func (o Outcome) Scheme() Scheme {
	switch o {
	case Sr25519Valid:
		return SchemeSr25519
	case Ed25519Valid:
		return SchemeEd25519
	}
	return 0
}

func (o Outcome) Valid() bool {
	return o != Invalid
}

func (o Outcome) String() string {
	switch o {
	case Sr25519Valid:
		return "sr25519 valid"
	case Ed25519Valid:
		return "ed25519 valid"
	}
	return "invalid"
}

type SignatureVerifier interface {
	// Verify checks sig over message against pubkey under every supported scheme.
	Verify(pubkey [PublicKeyLength]byte, message []byte, sig [SignatureLength]byte) Outcome
}

// Verifier is a concrete implementation of SignatureVerifier
type Verifier struct{}
