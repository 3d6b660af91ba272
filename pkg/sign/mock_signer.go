package sign

import (
	"fmt"
)

var _ Signer = (*MockSigner)(nil)
var _ PublicKey = (*MockPublicKey)(nil)
var _ Address = (*MockAddress)(nil)

// MockSigner is a Signer for tests. It produces predictable signatures by
// appending a suffix identifying the signer to the input.
type MockSigner struct {
	publicKey PublicKey
}

// NewMockSigner creates a MockSigner with the given ID.
func NewMockSigner(id string) *MockSigner {
	return &MockSigner{publicKey: NewMockPublicKey(id)}
}

// Sign appends "-signed-by-<id>" to the input.
func (m *MockSigner) Sign(digest []byte) (Signature, error) {
	sigBytes := append(digest, []byte(
		fmt.Sprintf("-signed-by-%s", m.publicKey.Address().String()),
	)...)
	return Signature(sigBytes), nil
}

// PublicKey returns the mock public key.
func (m *MockSigner) PublicKey() PublicKey { return m.publicKey }

// MockPublicKey uses an ID string as both key material and address.
type MockPublicKey struct {
	id string
}

// NewMockPublicKey creates a MockPublicKey with the given ID.
func NewMockPublicKey(id string) *MockPublicKey {
	return &MockPublicKey{id: id}
}

func (m *MockPublicKey) Address() Address { return NewMockAddress(m.id) }
func (m *MockPublicKey) Bytes() []byte    { return []byte(m.id) }

// MockAddress is an Address backed by a plain string.
type MockAddress struct {
	id string
}

// NewMockAddress creates a MockAddress with the given ID.
func NewMockAddress(id string) MockAddress { return MockAddress{id: id} }

func (m MockAddress) String() string { return m.id }

func (m MockAddress) Equals(other Address) bool {
	return m.String() == other.String()
}
