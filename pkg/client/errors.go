package client

import "github.com/pkg/errors"

var (
	// ErrDuplicateSubscription is returned when the node hands out a
	// subscription ID that is already registered on this client.
	ErrDuplicateSubscription = errors.New("subscription id already registered")

	// ErrNotSubscribed is returned for operations on a subscription ID
	// unknown to this client.
	ErrNotSubscribed = errors.New("no subscription with this id")

	// ErrUnsupportedOperation is returned when a subscription operation is
	// attempted over a transport that cannot receive server pushes.
	ErrUnsupportedOperation = errors.New("operation requires a push-capable transport")

	// ErrNoSigner is returned by operations that need a signature when the
	// client was built without one.
	ErrNoSigner = errors.New("client has no signer configured")
)
