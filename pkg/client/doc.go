// Package client is the high-level access layer for a Meridian node.
//
// A Client wraps a transport from pkg/rpc and exposes chain reads,
// signed transaction submission, and live event subscriptions filtered by
// application-level conditions.
//
// # Subscriptions
//
// Subscribe turns a caller's filter into a single server-side query
// string, sends it, and registers the returned subscription ID together
// with the caller's handler. All subscriptions share one connection; the
// client demultiplexes inbound push messages and dispatches each one to
// the handlers it belongs to:
//
//	tr := rpc.NewWebsocketTransport(rpc.DefaultWebsocketTransportConfig)
//	c := client.New(tr, client.WithLogger(lg))
//
//	err := c.Start(ctx, "wss://node.example.com/rpc", func(err error) {
//	    if err != nil {
//	        lg.Error("connection closed", "error", err)
//	    }
//	})
//
//	id, err := c.Subscribe(ctx, "Transferred", "", client.Conditions{
//	    "fromBlock": 100,
//	    "recipient": "0xabc",
//	}, func(msg *rpc.Response) {
//	    var notif client.EventNotification
//	    _ = json.Unmarshal(msg.Result, &notif)
//	    lg.Info("transfer", "fields", notif.Fields)
//	})
//
//	// ...
//	err = c.Unsubscribe(ctx, id)
//
// Handlers run synchronously on the routing goroutine, one message at a
// time, in arrival order. A handler must not call back into Subscribe or
// Unsubscribe; doing so can deadlock the routing loop.
//
// Subscriptions to system event names (Tx, NewBlock, NewBlockHeader)
// receive the node's envelope verbatim. Subscriptions to application
// event names receive one reshaped envelope per matching event in the
// transaction, with the result replaced by an EventNotification.
//
// Subscription IDs are issued by the node and the node composes the IDs
// of push messages from them, so attribution is a substring test, not an
// equality test. Unsubscribing sends the subscription's original query
// string; the node identifies subscriptions by query content.
//
// Subscribe and Unsubscribe require a push-capable transport and fail
// with ErrUnsupportedOperation over plain HTTP. All read methods work
// over either transport.
package client
