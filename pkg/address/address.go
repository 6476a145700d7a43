// Package address validates and decodes substrate (ss58) and EVM (h160) addresses
// into their canonical byte forms.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vedhavyas/go-subkey"
)

const (
	PublicKeyLength  = 32
	EvmAddressLength = common.AddressLength
)

// Prefixes 46 and 47 are reserved by the ss58 registry and never name a network.
var reservedNetworks = map[uint16]bool{46: true, 47: true}

var (
	ErrInvalidSubstrateAddress = errors.New("invalid substrate address")
	ErrInvalidEvmAddress       = errors.New("invalid evm address")
)

// SubstrateAddress is a decoded ss58 account: the raw 32 byte account id and the
// network prefix it was encoded with.
type SubstrateAddress struct {
	PublicKey [PublicKeyLength]byte
	Network   uint16
}

// Hex returns the public key as 0x-prefixed lowercase hex.
func (a SubstrateAddress) Hex() string {
	return "0x" + hex.EncodeToString(a.PublicKey[:])
}

// SS58 re-encodes the public key under the given network prefix.
func (a SubstrateAddress) SS58(network uint16) string {
	return subkey.SS58Encode(a.PublicKey[:], network)
}

// EvmAddress is a 20 byte h160 account identifier.
type EvmAddress = common.Address

// ValidateSubstrate decodes an ss58 string. The embedded checksum is recomputed
// by go-subkey and a mismatch is reported as ErrInvalidSubstrateAddress. Any
// registered network prefix is accepted, but reserved prefixes and two byte
// prefix encodings of values below 64 are not.
func ValidateSubstrate(input string) (SubstrateAddress, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return SubstrateAddress{}, fmt.Errorf("%w: empty input", ErrInvalidSubstrateAddress)
	}

	network, pub, err := decodeSS58(input)
	if err != nil {
		return SubstrateAddress{}, fmt.Errorf("%w: %v", ErrInvalidSubstrateAddress, err)
	}
	if len(pub) != PublicKeyLength {
		return SubstrateAddress{}, fmt.Errorf(
			"%w: expected %d byte account id, got %d",
			ErrInvalidSubstrateAddress, PublicKeyLength, len(pub),
		)
	}

	if reservedNetworks[network] {
		return SubstrateAddress{}, fmt.Errorf("%w: reserved network prefix %d", ErrInvalidSubstrateAddress, network)
	}
	if subkey.SS58Encode(pub, network) != input {
		return SubstrateAddress{}, fmt.Errorf("%w: non-canonical network prefix encoding", ErrInvalidSubstrateAddress)
	}

	addr := SubstrateAddress{Network: network}
	copy(addr.PublicKey[:], pub)
	return addr, nil
}

// decodeSS58 turns a panic inside the decoder on short inputs into an error.
func decodeSS58(input string) (network uint16, pub []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed ss58 payload: %v", r)
		}
	}()
	return subkey.SS58Decode(input)
}

// ValidateEvm accepts 40 hex digits with an optional 0x prefix, in any case.
// No EIP-55 checksum is enforced.
func ValidateEvm(input string) (EvmAddress, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return EvmAddress{}, fmt.Errorf(
			"%w: expected %d hex digits with optional 0x prefix",
			ErrInvalidEvmAddress, 2*EvmAddressLength,
		)
	}
	return common.HexToAddress(input), nil
}

// Strip0x removes a leading 0x or 0X.
func Strip0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
