// Package message rebuilds the exact byte sequence a browser-extension wallet
// signs when asked to sign raw bytes.
package message

import (
	"github.com/tensorplex-labs/walletlink/pkg/address"
)

const (
	WrapPrefix  = "<Bytes>"
	WrapPostfix = "</Bytes>"
)

// WrapBytes encloses payload in the <Bytes>...</Bytes> markers with no separators.
func WrapBytes(payload []byte) []byte {
	out := make([]byte, 0, len(WrapPrefix)+len(payload)+len(WrapPostfix))
	out = append(out, WrapPrefix...)
	out = append(out, payload...)
	out = append(out, WrapPostfix...)
	return out
}

// Wrap returns the signed payload for an EVM address. The raw 20 address bytes
// are wrapped, not the hex text.
func Wrap(addr address.EvmAddress) []byte {
	return WrapBytes(addr.Bytes())
}
