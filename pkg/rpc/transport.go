package rpc

import "context"

// Transport sends requests to a node and returns its responses.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Call sends a request and waits for the matching response.
	// The context can be used to cancel the call.
	Call(ctx context.Context, req *Request) (*Response, error)

	// Close releases the transport's resources. For persistent
	// transports it tears down the connection.
	Close() error
}

// PushTransport is a Transport over a persistent connection that can
// additionally deliver server-initiated messages. Subscription
// operations require one.
type PushTransport interface {
	Transport

	// Dial establishes the connection. It returns once the connection
	// is up; handleClosure is invoked when the connection later closes,
	// with the first error encountered, if any.
	Dial(ctx context.Context, url string, handleClosure func(err error)) error

	// IsConnected reports whether the transport has a live connection.
	IsConnected() bool

	// MessageCh returns the channel on which server push messages are
	// delivered, in arrival order. The channel is closed when the
	// connection closes.
	MessageCh() <-chan *Response
}
