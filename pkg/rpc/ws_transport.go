package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meridianlabs/meridian-go/pkg/log"
)

// dialCtx holds the connection context and resources
type dialCtx struct {
	ctx    context.Context // Connection context for lifecycle management
	cancel context.CancelFunc
	conn   *websocket.Conn // WebSocket connection
	lg     log.Logger      // Logger for this connection
}

// WebsocketTransportConfig contains configuration options for the
// WebSocket transport.
type WebsocketTransportConfig struct {
	// HandshakeTimeout is the duration to wait for the WebSocket handshake
	// to complete.
	HandshakeTimeout time.Duration

	// PingInterval is how often to send ping requests to keep the
	// connection alive.
	PingInterval time.Duration

	// PingRequestID is the request ID reserved for ping requests.
	// It must not collide with IDs used for regular calls.
	PingRequestID uint64

	// MessageChanSize is the buffer size of the push-message channel.
	// A larger buffer prevents blocking when many notifications arrive
	// faster than the router consumes them.
	MessageChanSize int
}

// DefaultWebsocketTransportConfig provides sensible defaults for
// WebSocket connections.
var DefaultWebsocketTransportConfig = WebsocketTransportConfig{
	HandshakeTimeout: 5 * time.Second,
	PingInterval:     5 * time.Second,
	PingRequestID:    100,
	MessageChanSize:  100,
}

// WebsocketTransport implements PushTransport over a gorilla/websocket
// connection. Responses to calls are paired with their requests by
// numeric ID; everything else, including all string-ID notifications,
// is delivered on MessageCh.
type WebsocketTransport struct {
	cfg           WebsocketTransportConfig
	dialCtx       *dialCtx                  // Connection context and resources
	msgCh         chan *Response            // Channel for push messages
	responseSinks map[uint64]chan *Response // Map of request IDs to response channels
	mu            sync.RWMutex              // Protects dialCtx and responseSinks
	writeMu       sync.Mutex                // Serializes WebSocket write operations
}

var _ PushTransport = (*WebsocketTransport)(nil)

// NewWebsocketTransport creates a WebSocket transport with the given
// configuration.
func NewWebsocketTransport(cfg WebsocketTransportConfig) *WebsocketTransport {
	return &WebsocketTransport{
		cfg:           cfg,
		msgCh:         make(chan *Response, cfg.MessageChanSize),
		responseSinks: make(map[uint64]chan *Response),
	}
}

// Dial establishes a WebSocket connection to the specified URL.
// It starts three background goroutines: one closing the connection on
// context cancellation, one reading and routing inbound frames, and one
// sending periodic pings. handleClosure is invoked after all of them
// have stopped, with the first error encountered.
func (t *WebsocketTransport) Dial(parentCtx context.Context, url string, handleClosure func(err error)) error {
	if t.IsConnected() {
		return ErrAlreadyConnected
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  t.cfg.HandshakeTimeout,
		EnableCompression: true,
	}

	conn, _, err := dialer.DialContext(parentCtx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDialingWebsocket, err)
	}

	childCtx, cancel := context.WithCancel(parentCtx)
	wg := sync.WaitGroup{}
	wg.Add(3) // We'll start 3 goroutines

	var closureErr error
	var closureErrMu sync.Mutex
	childHandleClosure := func(err error) {
		closureErrMu.Lock()
		defer closureErrMu.Unlock()

		// Capture the first error encountered
		if err != nil && closureErr == nil {
			closureErr = err
		}

		cancel() // Cancel context to stop other goroutines
		wg.Done()
	}

	t.mu.Lock()
	t.dialCtx = &dialCtx{
		ctx:    childCtx,
		cancel: cancel,
		conn:   conn,
		lg:     log.FromContext(parentCtx).WithName("ws-transport"),
	}
	t.msgCh = make(chan *Response, t.cfg.MessageChanSize)
	msgCh := t.msgCh
	t.mu.Unlock()

	go t.closeOnContextDone(childCtx, childHandleClosure)
	go t.readMessages(childCtx, childHandleClosure)
	go t.pingPeriodically(childCtx, childHandleClosure)

	// Close the message channel and report closure only after every
	// goroutine has stopped, so nothing can send on a closed channel.
	go func() {
		wg.Wait()

		closureErrMu.Lock()
		defer closureErrMu.Unlock()

		close(msgCh)
		if handleClosure != nil {
			handleClosure(closureErr)
		}
	}()

	return nil
}

// IsConnected reports whether the transport has a live connection.
func (t *WebsocketTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.dialCtx != nil && t.dialCtx.ctx.Err() == nil
}

// Close tears down the connection, if any. The closure handler passed to
// Dial still runs.
func (t *WebsocketTransport) Close() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.dialCtx == nil {
		return nil
	}
	t.dialCtx.cancel()
	return nil
}

// closeOnContextDone waits for the context to be done and then closes the connection
func (t *WebsocketTransport) closeOnContextDone(ctx context.Context, handleClosure func(err error)) {
	<-ctx.Done()

	t.mu.RLock()
	conn := t.dialCtx.conn
	t.mu.RUnlock()

	err := conn.Close()

	// Clean up response sinks to prevent goroutine leaks
	t.mu.Lock()
	for _, sink := range t.responseSinks {
		close(sink)
	}
	t.responseSinks = make(map[uint64]chan *Response)
	t.mu.Unlock()

	handleClosure(err)
}

// readMessages continuously reads frames from the WebSocket connection
// and routes each one to the matching response sink, or to the push
// channel when no call is waiting on its ID.
func (t *WebsocketTransport) readMessages(ctx context.Context, handleClosure func(err error)) {
	t.mu.RLock()
	conn := t.dialCtx.conn
	lg := t.dialCtx.lg
	msgCh := t.msgCh
	t.mu.RUnlock()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if ctx.Err() != nil {
			handleClosure(nil)
			lg.Info("websocket read loop exiting due to context done")
			return
		} else if _, ok := err.(net.Error); ok {
			handleClosure(fmt.Errorf("%w: %w", ErrConnectionTimeout, err))
			lg.Error("websocket connection timeout", "error", err)
			return
		} else if err != nil {
			handleClosure(fmt.Errorf("%w: %w", ErrReadingMessage, err))
			lg.Error("websocket read error", "error", err)
			return
		}

		// Malformed frames are dropped here: they carry no usable
		// correlation ID, so no caller could ever be failed by them.
		var msg Response
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			lg.Warn("malformed message", "message", string(messageBytes), "error", err)
			continue
		}

		sink := msgCh
		if reqID, ok := msg.ID.Uint64(); ok {
			t.mu.Lock()
			if responseSink, exists := t.responseSinks[reqID]; exists {
				sink = responseSink
			}
			t.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			handleClosure(nil)
			return
		case sink <- &msg:
		default:
			// Channel full, drop the message
			lg.Warn("message channel full, dropping message", "id", msg.ID.String())
		}
	}
}

// Call sends a request and waits for the response carrying the same ID.
// The request must have an ID unique among in-flight calls. Safe for
// concurrent use.
func (t *WebsocketTransport) Call(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Check connection and register the response sink atomically
	t.mu.Lock()
	if t.dialCtx == nil || t.dialCtx.ctx.Err() != nil {
		t.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := t.dialCtx.conn
	connCtx := t.dialCtx.ctx
	responseSink := make(chan *Response, 1) // Buffered to prevent blocking in readMessages
	t.responseSinks[req.ID] = responseSink
	t.mu.Unlock()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalingRequest, err)
	}

	// WebSocket writes must be serialized
	t.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, reqJSON)
	t.writeMu.Unlock()

	if err != nil {
		t.mu.Lock()
		delete(t.responseSinks, req.ID)
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
	}

	var res *Response
	select {
	case <-ctx.Done():
		// Request context cancelled
	case <-connCtx.Done():
		// Connection closed
	case res = <-responseSink:
		// Got response
	}

	t.mu.Lock()
	delete(t.responseSinks, req.ID)
	t.mu.Unlock()

	if res == nil {
		return nil, fmt.Errorf("%w for request %d", ErrNoResponse, req.ID)
	}
	return res, nil
}

// pingPeriodically sends ping requests at regular intervals to keep the
// connection alive.
func (t *WebsocketTransport) pingPeriodically(ctx context.Context, handleClosure func(err error)) {
	t.mu.RLock()
	lg := t.dialCtx.lg
	t.mu.RUnlock()

	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			handleClosure(nil)
			lg.Info("ping loop exiting due to context done")
			return
		case <-ticker.C:
			req := NewRequest(t.cfg.PingRequestID, MethodPing, nil)

			res, err := t.Call(ctx, &req)
			if err != nil {
				handleClosure(fmt.Errorf("%w: %w", ErrSendingPing, err))
				lg.Error("error sending ping", "error", err)
				return
			}
			if err := res.Err(); err != nil {
				lg.Warn("unexpected response to ping", "error", err)
			}
		}
	}
}

// MessageCh returns the channel carrying server push messages.
// The channel is closed when the connection closes.
func (t *WebsocketTransport) MessageCh() <-chan *Response {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.msgCh
}
