package signature

import (
	"encoding/hex"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ChainSafe/gossamer/lib/crypto/ed25519"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/pkg/address"
)

// attempt is one scheme-local verification. A returned error means the key or
// signature bytes are not well formed for that scheme.
type attempt struct {
	scheme  Scheme
	outcome Outcome
	verify  func(pubkey, message, sig []byte) (bool, error)
}

// attempts is ordered; the first scheme that accepts decides the reported outcome.
var attempts = [...]attempt{
	{scheme: SchemeSr25519, outcome: Sr25519Valid, verify: verifySr25519},
	{scheme: SchemeEd25519, outcome: Ed25519Valid, verify: verifyEd25519},
}

// NewVerifier creates a new signature verifier
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify implements the SignatureVerifier interface
func (v *Verifier) Verify(pubkey [PublicKeyLength]byte, message []byte, sig [SignatureLength]byte) Outcome {
	return Verify(pubkey, message, sig)
}

func Verify(pubkey [PublicKeyLength]byte, message []byte, sig [SignatureLength]byte) Outcome {
	for _, a := range attempts {
		ok, err := a.verify(pubkey[:], message, sig[:])
		if err != nil {
			log.Trace().Err(err).Str("scheme", a.scheme.String()).Msg("scheme rejected key or signature bytes")
			continue
		}
		if ok {
			return a.outcome
		}
	}
	return Invalid
}

func verifySr25519(pubkey, message, sig []byte) (bool, error) {
	publicKey, err := sr25519.NewPublicKey(pubkey)
	if err != nil {
		return false, fmt.Errorf("failed to create sr25519 public key: %w", err)
	}

	// gossamer binds the "substrate" signing context before verifying
	return publicKey.Verify(message, sig)
}

func verifyEd25519(pubkey, message, sig []byte) (bool, error) {
	if err := rejectSmallOrder(pubkey); err != nil {
		return false, err
	}

	publicKey, err := ed25519.NewPublicKey(pubkey)
	if err != nil {
		return false, fmt.Errorf("failed to create ed25519 public key: %w", err)
	}
	return publicKey.Verify(message, sig)
}

// rejectSmallOrder refuses keys in the torsion subgroup. Plain ed25519
// verification accepts a fixed signature for such a key over any message.
func rejectSmallOrder(pubkey []byte) error {
	point, err := new(edwards25519.Point).SetBytes(pubkey)
	if err != nil {
		return fmt.Errorf("ed25519 public key is not a curve point: %w", err)
	}
	if new(edwards25519.Point).MultByCofactor(point).Equal(edwards25519.NewIdentityPoint()) == 1 {
		return ErrSmallOrderKey
	}
	return nil
}

// DecodeSignature parses hex text with an optional 0x prefix into exactly 64 bytes.
func DecodeSignature(text string) ([SignatureLength]byte, error) {
	var sig [SignatureLength]byte

	raw, err := hex.DecodeString(address.Strip0x(strings.TrimSpace(text)))
	if err != nil {
		return sig, fmt.Errorf("%w: not hex", ErrInvalidSignatureEncoding)
	}

	if len(raw) != SignatureLength {
		return sig, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidSignatureEncoding, SignatureLength, len(raw),
		)
	}

	copy(sig[:], raw)
	return sig, nil
}
