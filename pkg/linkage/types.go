// Package linkage proves that one party controls both a substrate account and an
// EVM account by checking a substrate signature over the wrapped EVM address.
package linkage

import (
	"errors"

	"github.com/tensorplex-labs/walletlink/pkg/address"
	"github.com/tensorplex-labs/walletlink/pkg/signature"
)

// VerifiedLinkage is produced only by a successful verification.
type VerifiedLinkage struct {
	SubstratePubkey [address.PublicKeyLength]byte
	// Network is the ss58 prefix the substrate address was presented with.
	Network    uint16
	EvmAddress [address.EvmAddressLength]byte
	Scheme     signature.Scheme
}

// ErrorKind classifies a failed linkage.
type ErrorKind int

const (
	KindInvalidSubstrateAddress ErrorKind = iota + 1
	KindInvalidEvmAddress
	KindInvalidSignatureEncoding
	KindVerificationFailed
	KindUpstreamFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidSubstrateAddress:
		return "invalid substrate address"
	case KindInvalidEvmAddress:
		return "invalid evm address"
	case KindInvalidSignatureEncoding:
		return "invalid signature encoding"
	case KindVerificationFailed:
		return "signature could not be verified"
	case KindUpstreamFailure:
		return "upstream failure"
	}
	return "unknown linkage error"
}

// Error carries the kind that callers show to users. The wrapped cause is kept
// for logs only and never appears in Error().
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so the Err* values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidSubstrateAddress  = &Error{Kind: KindInvalidSubstrateAddress}
	ErrInvalidEvmAddress        = &Error{Kind: KindInvalidEvmAddress}
	ErrInvalidSignatureEncoding = &Error{Kind: KindInvalidSignatureEncoding}
	ErrVerificationFailed       = &Error{Kind: KindVerificationFailed}
	ErrUpstreamFailure          = &Error{Kind: KindUpstreamFailure}
)

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// Upstream wraps a collaborator failure (storage, allowlist lookup). The service
// itself never returns this kind.
func Upstream(cause error) *Error {
	return newError(KindUpstreamFailure, cause)
}

// KindOf returns the kind of err, or zero if err is not a linkage error.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}
