package rpc

import "errors"

// Transport errors. Connection-level failures are wrapped with the
// sentinel first so callers can match with errors.Is.
var (
	ErrAlreadyConnected  = errors.New("transport is already connected")
	ErrNotConnected      = errors.New("transport is not connected")
	ErrDialingWebsocket  = errors.New("failed to dial websocket")
	ErrConnectionTimeout = errors.New("connection timed out")
	ErrReadingMessage    = errors.New("failed to read message")
	ErrMarshalingRequest = errors.New("failed to marshal request")
	ErrSendingRequest    = errors.New("failed to send request")
	ErrSendingPing       = errors.New("failed to send ping")
	ErrNoResponse        = errors.New("no response received")
	ErrNilRequest        = errors.New("request cannot be nil")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
)
