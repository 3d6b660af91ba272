// Package sign provides the signing primitives used for Meridian
// transaction submission and client authentication.
//
// The interfaces keep private key material behind the Signer boundary so
// implementations can be backed by in-memory keys, hardware modules, or
// remote key services. Meridian accounts are secp256k1 keypairs with
// Ethereum-style 20-byte addresses.
package sign

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer produces signatures for 32-byte digests.
type Signer interface {
	// PublicKey returns the public key associated with this signer.
	PublicKey() PublicKey
	// Sign signs the given digest. The input must already be hashed;
	// implementations never hash on behalf of the caller.
	Sign(digest []byte) (Signature, error)
}

// AddressRecoverer recovers the signing address from a message and its
// signature.
type AddressRecoverer interface {
	RecoverAddress(message []byte, signature Signature) (Address, error)
}

// PublicKey is a signer's public half.
type PublicKey interface {
	Address() Address
	Bytes() []byte
}

// Address is an account identifier on the ledger.
type Address interface {
	fmt.Stringer

	// Equals returns true if this address equals the other address.
	Equals(other Address) bool
}

// Signature is a raw signature, encoded as a 0x-prefixed hex string in JSON.
type Signature []byte

// MarshalJSON implements json.Marshaler.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String implements fmt.Stringer.
func (s Signature) String() string {
	return hexutil.Encode(s)
}
