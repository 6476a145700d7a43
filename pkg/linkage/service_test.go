package linkage

import (
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"filippo.io/edwards25519"
	"github.com/ChainSafe/gossamer/lib/crypto/ed25519"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedhavyas/go-subkey"

	"github.com/tensorplex-labs/walletlink/pkg/address"
	"github.com/tensorplex-labs/walletlink/pkg/message"
	"github.com/tensorplex-labs/walletlink/pkg/signature"
)

const (
	sr25519Substrate = "14AkzFjCFtdwzCJnnfPxgwL87W1h7AHFdzjKh9q9YaojWFxx"
	sr25519Evm       = "0xb794f5ea0ba39494ce839613fffba74279579268"
	sr25519Sig       = "0xc67b20ee54a52ba6636e8f41f7aa984a47916ef17a119d441d29a97ac6ebfa6921f649cd3a02084df393a6614f3ac699aca98bdb5ccf5504dd74fd6e3f6dd48a"

	ed25519Substrate = "EYuduchUnaQwZpQeLSHfbizV7myJ5XAx3Fyo1RZPamiBiyu"
	ed25519Evm       = "b794f5ea0ba39494ce839613fffba74279579268"
	ed25519Sig       = "fb275c30af9eceb9e0370f80896c223fdc728e590bc5deefb776f78ac914c8b3be21800a9f959bbb7e03ce4b745965c82261dfbcc3d7c7906a9bd7a4f855380a"

	genericNetwork = 42
)

func TestVerifyLinkageFixtures(t *testing.T) {
	svc := NewService(nil)

	tests := []struct {
		name      string
		substrate string
		evm       string
		sig       string
		scheme    signature.Scheme
		kind      ErrorKind
	}{
		{
			name:      "sr25519 with 0x prefixes",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       sr25519Sig,
			scheme:    signature.SchemeSr25519,
		},
		{
			name:      "sr25519 without 0x prefixes",
			substrate: sr25519Substrate,
			evm:       strings.TrimPrefix(sr25519Evm, "0x"),
			sig:       strings.TrimPrefix(sr25519Sig, "0x"),
			scheme:    signature.SchemeSr25519,
		},
		{
			name:      "last signature digit changed",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       sr25519Sig[:len(sr25519Sig)-1] + "b",
			kind:      KindVerificationFailed,
		},
		{
			name:      "first signature digit changed",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       "0x3" + sr25519Sig[3:],
			kind:      KindVerificationFailed,
		},
		{
			name:      "ed25519",
			substrate: ed25519Substrate,
			evm:       ed25519Evm,
			sig:       ed25519Sig,
			scheme:    signature.SchemeEd25519,
		},
		{
			name:      "non hex evm address",
			substrate: sr25519Substrate,
			evm:       "zz794f5ea0ba39494ce839613fffba74279579268",
			sig:       sr25519Sig,
			kind:      KindInvalidEvmAddress,
		},
		{
			name:      "signature truncated to 32 bytes",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       sr25519Sig[:2+64],
			kind:      KindInvalidSignatureEncoding,
		},
		{
			name:      "signature too long",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       sr25519Sig + "00",
			kind:      KindInvalidSignatureEncoding,
		},
		{
			name:      "non hex signature",
			substrate: sr25519Substrate,
			evm:       sr25519Evm,
			sig:       "0x" + strings.Repeat("g", 128),
			kind:      KindInvalidSignatureEncoding,
		},
		{
			name:      "invalid substrate address",
			substrate: "invalid-address",
			evm:       sr25519Evm,
			sig:       sr25519Sig,
			kind:      KindInvalidSubstrateAddress,
		},
		{
			name:      "signature for a different evm address",
			substrate: sr25519Substrate,
			evm:       "0x0000000000000000000000000000000000000001",
			sig:       sr25519Sig,
			kind:      KindVerificationFailed,
		},
		{
			name:      "ed25519 signature against the sr25519 account",
			substrate: sr25519Substrate,
			evm:       ed25519Evm,
			sig:       ed25519Sig,
			kind:      KindVerificationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linked, err := svc.VerifyLinkage(tt.substrate, tt.evm, tt.sig)
			if tt.kind != 0 {
				require.Error(t, err)
				assert.Nil(t, linked)
				assert.Equal(t, tt.kind, KindOf(err))
				return
			}

			require.NoError(t, err)
			require.NotNil(t, linked)
			assert.Equal(t, tt.scheme, linked.Scheme)

			substrate, err := address.ValidateSubstrate(tt.substrate)
			require.NoError(t, err)
			assert.Equal(t, substrate.PublicKey, linked.SubstratePubkey)
			assert.Equal(t, substrate.Network, linked.Network)
			assert.Equal(t, "b794f5ea0ba39494ce839613fffba74279579268", hex.EncodeToString(linked.EvmAddress[:]))
		})
	}
}

func TestVerifyLinkageFailFastOrder(t *testing.T) {
	svc := NewService(nil)

	// every field is broken; the substrate address is checked first
	_, err := svc.VerifyLinkage("nope", "nope", "nope")
	assert.True(t, errors.Is(err, ErrInvalidSubstrateAddress))

	_, err = svc.VerifyLinkage(sr25519Substrate, "nope", "nope")
	assert.True(t, errors.Is(err, ErrInvalidEvmAddress))

	_, err = svc.VerifyLinkage(sr25519Substrate, sr25519Evm, "nope")
	assert.True(t, errors.Is(err, ErrInvalidSignatureEncoding))
}

type countingVerifier struct {
	calls int
}

func (c *countingVerifier) Verify([32]byte, []byte, [64]byte) signature.Outcome {
	c.calls++
	return signature.Invalid
}

func TestVerifyLinkageLengthGuardSkipsCrypto(t *testing.T) {
	counter := &countingVerifier{}
	svc := NewService(counter)

	for _, sig := range []string{sr25519Sig[:2+126], sr25519Sig + "ab", "", "0x"} {
		_, err := svc.VerifyLinkage(sr25519Substrate, sr25519Evm, sig)
		assert.Equal(t, KindInvalidSignatureEncoding, KindOf(err), sig)
	}
	assert.Zero(t, counter.calls)

	_, err := svc.VerifyLinkage(sr25519Substrate, sr25519Evm, sr25519Sig)
	assert.Equal(t, KindVerificationFailed, KindOf(err))
	assert.Equal(t, 1, counter.calls)
}

func TestVerifyLinkageCaseInvariance(t *testing.T) {
	svc := NewService(nil)

	variants := [][2]string{
		{sr25519Evm, sr25519Sig},
		{strings.ToUpper(sr25519Evm[2:]), strings.ToUpper(sr25519Sig[2:])},
		{"0x" + strings.ToUpper(sr25519Evm[2:]), "0x" + strings.ToUpper(sr25519Sig[2:])},
		{"0xB794F5eA0ba39494cE839613fffBA74279579268", sr25519Sig},
	}
	for _, v := range variants {
		linked, err := svc.VerifyLinkage(sr25519Substrate, v[0], v[1])
		require.NoError(t, err, "evm=%s sig=%s", v[0], v[1])
		assert.Equal(t, signature.SchemeSr25519, linked.Scheme)
	}
}

func TestVerifyLinkageDeterministic(t *testing.T) {
	svc := NewService(nil)

	first, err := svc.VerifyLinkage(sr25519Substrate, sr25519Evm, sr25519Sig)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.VerifyLinkage(sr25519Substrate, sr25519Evm, sr25519Sig)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVerifyLinkageConcurrent(t *testing.T) {
	svc := NewService(nil)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			linked, err := svc.VerifyLinkage(sr25519Substrate, sr25519Evm, sr25519Sig)
			if err != nil {
				errs <- err
				return
			}
			if linked.Scheme != signature.SchemeSr25519 {
				errs <- errors.New("unexpected scheme")
			}
		}()
		go func() {
			defer wg.Done()
			linked, err := svc.VerifyLinkage(ed25519Substrate, ed25519Evm, ed25519Sig)
			if err != nil {
				errs <- err
				return
			}
			if linked.Scheme != signature.SchemeEd25519 {
				errs <- errors.New("unexpected scheme")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestVerifyLinkageGeneratedKeys(t *testing.T) {
	svc := NewService(nil)
	evm, err := address.ValidateEvm("0x52908400098527886e0f7030069857d2e4169ee7")
	require.NoError(t, err)
	payload := message.Wrap(evm)

	t.Run("sr25519 only", func(t *testing.T) {
		keypair, err := sr25519.GenerateKeypair()
		require.NoError(t, err)
		sig, err := keypair.Sign(payload)
		require.NoError(t, err)

		ss58 := subkey.SS58Encode(keypair.Public().Encode(), genericNetwork)
		linked, err := svc.VerifyLinkage(ss58, evm.Hex(), hex.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, signature.SchemeSr25519, linked.Scheme)
		assert.Equal(t, uint16(genericNetwork), linked.Network)
	})

	t.Run("ed25519 only", func(t *testing.T) {
		keypair, err := ed25519.GenerateKeypair()
		require.NoError(t, err)
		sig, err := keypair.Sign(payload)
		require.NoError(t, err)

		ss58 := subkey.SS58Encode(keypair.Public().Encode(), 2)
		linked, err := svc.VerifyLinkage(ss58, evm.Hex(), "0x"+hex.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, signature.SchemeEd25519, linked.Scheme)
	})

	t.Run("hex text signed instead of bytes", func(t *testing.T) {
		keypair, err := sr25519.GenerateKeypair()
		require.NoError(t, err)
		sig, err := keypair.Sign(message.WrapBytes([]byte(evm.Hex())))
		require.NoError(t, err)

		ss58 := subkey.SS58Encode(keypair.Public().Encode(), genericNetwork)
		_, err = svc.VerifyLinkage(ss58, evm.Hex(), hex.EncodeToString(sig))
		assert.Equal(t, KindVerificationFailed, KindOf(err))
	})

	t.Run("unwrapped payload", func(t *testing.T) {
		keypair, err := ed25519.GenerateKeypair()
		require.NoError(t, err)
		sig, err := keypair.Sign(evm.Bytes())
		require.NoError(t, err)

		ss58 := subkey.SS58Encode(keypair.Public().Encode(), 2)
		_, err = svc.VerifyLinkage(ss58, evm.Hex(), hex.EncodeToString(sig))
		assert.Equal(t, KindVerificationFailed, KindOf(err))
	})
}

func TestVerifyLinkageRejectsIdentityKey(t *testing.T) {
	svc := NewService(nil)

	// s*B || s verifies under the identity key for any message
	var s [32]byte
	s[0] = 5
	scalar, err := edwards25519.NewScalar().SetCanonicalBytes(s[:])
	require.NoError(t, err)
	sig := hex.EncodeToString(new(edwards25519.Point).ScalarBaseMult(scalar).Bytes()) + hex.EncodeToString(s[:])

	identity := make([]byte, 32)
	identity[0] = 0x01
	ss58 := subkey.SS58Encode(identity, 2)

	for _, evm := range []string{
		"b794f5ea0ba39494ce839613fffba74279579268",
		"0000000000000000000000000000000000000001",
	} {
		linked, err := svc.VerifyLinkage(ss58, evm, sig)
		assert.Nil(t, linked)
		assert.True(t, errors.Is(err, ErrVerificationFailed), evm)
	}
}

func TestVerifyLinkageTamperSensitivity(t *testing.T) {
	svc := NewService(nil)

	fixtures := []struct {
		name, substrate, evm, sig string
	}{
		{"sr25519", sr25519Substrate, sr25519Evm, sr25519Sig},
		{"ed25519", ed25519Substrate, ed25519Evm, ed25519Sig},
	}

	for _, f := range fixtures {
		t.Run(f.name+" signature bits", func(t *testing.T) {
			sig, err := signature.DecodeSignature(f.sig)
			require.NoError(t, err)
			for bit := 0; bit < len(sig)*8; bit++ {
				tampered := sig
				tampered[bit/8] ^= 1 << (bit % 8)
				_, err := svc.VerifyLinkage(f.substrate, f.evm, hex.EncodeToString(tampered[:]))
				require.Equal(t, KindVerificationFailed, KindOf(err), "bit %d", bit)
			}
		})

		t.Run(f.name+" evm address bits", func(t *testing.T) {
			evm, err := address.ValidateEvm(f.evm)
			require.NoError(t, err)
			for bit := 0; bit < len(evm)*8; bit++ {
				tampered := evm
				tampered[bit/8] ^= 1 << (bit % 8)
				_, err := svc.VerifyLinkage(f.substrate, tampered.Hex(), f.sig)
				require.Equal(t, KindVerificationFailed, KindOf(err), "bit %d", bit)
			}
		})

		t.Run(f.name+" substrate address characters", func(t *testing.T) {
			for i := 0; i < len(f.substrate); i++ {
				replacement := byte('2')
				if f.substrate[i] == replacement {
					replacement = '3'
				}
				tampered := f.substrate[:i] + string(replacement) + f.substrate[i+1:]
				_, err := svc.VerifyLinkage(tampered, f.evm, f.sig)
				require.Error(t, err, "position %d", i)
				kind := KindOf(err)
				assert.True(t,
					kind == KindInvalidSubstrateAddress || kind == KindVerificationFailed,
					"position %d: unexpected kind %v", i, kind,
				)
			}
		})

		t.Run(f.name+" substrate public key bits", func(t *testing.T) {
			substrate, err := address.ValidateSubstrate(f.substrate)
			require.NoError(t, err)
			for bit := 0; bit < len(substrate.PublicKey)*8; bit++ {
				tampered := substrate
				tampered.PublicKey[bit/8] ^= 1 << (bit % 8)
				_, err := svc.VerifyLinkage(tampered.SS58(tampered.Network), f.evm, f.sig)
				require.Equal(t, KindVerificationFailed, KindOf(err), "bit %d", bit)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("redis down")
	err := Upstream(cause)

	assert.Equal(t, "upstream failure", err.Error())
	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrVerificationFailed))
	assert.Equal(t, KindUpstreamFailure, KindOf(err))
	assert.Equal(t, ErrorKind(0), KindOf(cause))

	// user facing text never includes the cause
	svc := NewService(nil)
	_, err2 := svc.VerifyLinkage("invalid-address", sr25519Evm, sr25519Sig)
	assert.Equal(t, "invalid substrate address", err2.Error())
}
