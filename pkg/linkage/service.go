package linkage

import (
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/pkg/address"
	"github.com/tensorplex-labs/walletlink/pkg/message"
	"github.com/tensorplex-labs/walletlink/pkg/signature"
)

// Service holds no mutable state and is safe for concurrent use.
type Service struct {
	verifier signature.SignatureVerifier
}

// NewService builds a service on the given verifier, or the default dual-scheme
// verifier when v is nil.
func NewService(v signature.SignatureVerifier) *Service {
	if v == nil {
		v = signature.NewVerifier()
	}
	return &Service{verifier: v}
}

// VerifyLinkage validates the substrate address, the EVM address and the signature
// encoding in that order, then checks the signature over the wrapped EVM address
// bytes. The first failure wins.
func (s *Service) VerifyLinkage(claimedSubstrate, claimedEvm, claimedSignature string) (*VerifiedLinkage, error) {
	substrate, err := address.ValidateSubstrate(claimedSubstrate)
	if err != nil {
		log.Debug().Err(err).Msg("substrate address rejected")
		return nil, newError(KindInvalidSubstrateAddress, err)
	}

	evm, err := address.ValidateEvm(claimedEvm)
	if err != nil {
		log.Debug().Err(err).Msg("evm address rejected")
		return nil, newError(KindInvalidEvmAddress, err)
	}

	sig, err := signature.DecodeSignature(claimedSignature)
	if err != nil {
		log.Debug().Err(err).Msg("signature encoding rejected")
		return nil, newError(KindInvalidSignatureEncoding, err)
	}

	payload := message.Wrap(evm)

	outcome := s.verifier.Verify(substrate.PublicKey, payload, sig)
	if !outcome.Valid() {
		log.Debug().
			Str("substrate", substrate.Hex()).
			Str("evm", evm.Hex()).
			Msg("signature rejected by every scheme")
		return nil, ErrVerificationFailed
	}

	log.Debug().
		Str("substrate", substrate.Hex()).
		Str("evm", evm.Hex()).
		Str("scheme", outcome.Scheme().String()).
		Msg("linkage verified")

	return &VerifiedLinkage{
		SubstratePubkey: substrate.PublicKey,
		Network:         substrate.Network,
		EvmAddress:      evm,
		Scheme:          outcome.Scheme(),
	}, nil
}
