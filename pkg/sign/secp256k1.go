package sign

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var _ Signer = (*Secp256k1Signer)(nil)
var _ AddressRecoverer = (*Secp256k1AddressRecoverer)(nil)
var _ PublicKey = (*Secp256k1PublicKey)(nil)
var _ Address = (*AccountAddress)(nil)

// AccountAddress is a Meridian account address, a 20-byte value rendered
// as a checksummed hex string.
type AccountAddress struct{ common.Address }

func (a AccountAddress) String() string { return a.Address.Hex() }

// NewAccountAddress wraps a raw common.Address.
func NewAccountAddress(addr common.Address) AccountAddress {
	return AccountAddress{addr}
}

// NewAccountAddressFromHex parses a hex-encoded account address.
func NewAccountAddressFromHex(hexAddr string) AccountAddress {
	return AccountAddress{common.HexToAddress(hexAddr)}
}

// Equals returns true if this address equals the other address.
func (a AccountAddress) Equals(other Address) bool {
	if otherAddr, ok := other.(AccountAddress); ok {
		return a.Address == otherAddr.Address
	}
	return a.String() == other.String()
}

// Secp256k1PublicKey implements PublicKey for secp256k1 keys.
type Secp256k1PublicKey struct{ *ecdsa.PublicKey }

func (p Secp256k1PublicKey) Address() Address {
	return AccountAddress{ethcrypto.PubkeyToAddress(*p.PublicKey)}
}

func (p Secp256k1PublicKey) Bytes() []byte { return ethcrypto.FromECDSAPub(p.PublicKey) }

// NewSecp256k1PublicKeyFromBytes parses an uncompressed public key.
func NewSecp256k1PublicKeyFromBytes(pubBytes []byte) (Secp256k1PublicKey, error) {
	pub, err := ethcrypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return Secp256k1PublicKey{}, fmt.Errorf("failed to unmarshal public key: %w", err)
	}
	return Secp256k1PublicKey{pub}, nil
}

// Secp256k1Signer signs digests with an in-memory secp256k1 private key.
type Secp256k1Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  Secp256k1PublicKey
}

// NewSecp256k1Signer creates a signer from a hex-encoded private key.
// A leading "0x" prefix is accepted.
func NewSecp256k1Signer(privateKeyHex string) (Signer, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	key, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("could not parse secp256k1 private key: %w", err)
	}
	return &Secp256k1Signer{
		privateKey: key,
		publicKey:  Secp256k1PublicKey{key.Public().(*ecdsa.PublicKey)},
	}, nil
}

func (s *Secp256k1Signer) PublicKey() PublicKey { return s.publicKey }

// Sign expects the input to be a 32-byte digest (e.g. a Keccak256 hash).
func (s *Secp256k1Signer) Sign(digest []byte) (Signature, error) {
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, err
	}
	// Adjust V from 0/1 to 27/28, the convention the node verifies against.
	if sig[64] < 27 {
		sig[64] += 27
	}
	return Signature(sig), nil
}

// Secp256k1AddressRecoverer implements AddressRecoverer for secp256k1
// signatures.
type Secp256k1AddressRecoverer struct{}

// RecoverAddress hashes the message with Keccak256 and recovers the
// signing address.
func (r *Secp256k1AddressRecoverer) RecoverAddress(message []byte, signature Signature) (Address, error) {
	hash := ethcrypto.Keccak256Hash(message)
	return RecoverAddressFromDigest(hash.Bytes(), signature)
}

// RecoverAddressFromDigest recovers the signing address from a
// pre-computed digest.
func RecoverAddressFromDigest(digest []byte, sig Signature) (Address, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("invalid signature length")
	}
	localSig := make([]byte, 65)
	copy(localSig, sig)
	if localSig[64] >= 27 {
		localSig[64] -= 27
	}
	pubKey, err := ethcrypto.SigToPub(digest, localSig)
	if err != nil {
		return nil, fmt.Errorf("signature recovery failed: %w", err)
	}
	return AccountAddress{ethcrypto.PubkeyToAddress(*pubKey)}, nil
}
