// Package rpc implements the wire protocol of the Meridian node's
// JSON-RPC interface and the transports the SDK speaks it over.
//
// # Envelope
//
// Requests and responses use JSON-RPC 2.0 framing:
//
//	{"jsonrpc": "2.0", "id": 7, "method": "get_block", "params": {"height": 42}}
//	{"jsonrpc": "2.0", "id": 7, "result": {...}}
//
// Message identifiers are dual-typed. Client calls carry numeric IDs that
// the client assigns and uses to pair responses with requests. Server push
// notifications carry server-composed string IDs; the subscription
// identifier returned by a subscribe call reappears as a substring of
// those IDs, which is how the client attributes a push message to its
// subscriptions. The ID type models both shapes.
//
// # Transports
//
// Transport is the minimal request/response contract. PushTransport
// extends it with a persistent connection and a message channel for
// server-initiated notifications:
//
//	ws := rpc.NewWebsocketTransport(rpc.DefaultWebsocketTransportConfig)
//	go ws.Dial(ctx, "wss://node.example.com/rpc", func(err error) {
//	    if err != nil {
//	        lg.Error("connection closed", "error", err)
//	    }
//	})
//
//	res, err := ws.Call(ctx, &req)
//
//	for msg := range ws.MessageCh() {
//	    // server push
//	}
//
// HTTPTransport implements only Transport; subscription operations are
// rejected by the client when it is configured with one.
//
// Inbound frames that cannot be decoded are logged and dropped by the
// transport. They are never delivered on MessageCh: an unattributable
// message has no subscriber to fail.
package rpc
