package client

import (
	"encoding/json"

	"github.com/meridianlabs/meridian-go/pkg/rpc"
)

// routeMessages is the client's routing loop. It runs as a single
// goroutine for the lifetime of the connection, consuming push messages
// in arrival order; per-subscription delivery order is therefore the
// node's emission order.
func (c *Client) routeMessages(msgCh <-chan *rpc.Response) {
	for msg := range msgCh {
		c.routeMessage(msg)
	}
	c.lg.Debug("routing loop stopped")
}

// routeMessage dispatches one push envelope to every subscription it
// belongs to. System subscriptions receive the envelope verbatim;
// application subscriptions receive one reshaped envelope per event in
// the transaction that carries their event name. A message that matches
// nothing is dropped without effect.
func (c *Client) routeMessage(msg *rpc.Response) {
	envelopeID := msg.ID.String()
	subs := c.registry.Matching(envelopeID)
	if len(subs) == 0 {
		c.lg.Debug("push message matched no subscription", "id", envelopeID)
		c.metrics.dropped()
		return
	}
	c.metrics.routed()

	for _, sub := range subs {
		if IsSystemEvent(sub.Event) {
			c.invoke(sub, msg)
			continue
		}
		c.routeApplicationEvents(sub, msg)
	}
}

func (c *Client) routeApplicationEvents(sub *Subscription, msg *rpc.Response) {
	events, err := DecodeEventData(msg.Result)
	if err != nil {
		c.lg.Warn("dropping undecodable transaction payload",
			"id", msg.ID.String(), "subscription", sub.ID, "error", err)
		c.metrics.dropped()
		return
	}

	for i := range events {
		ev := events[i]
		if ev.Name != sub.Event {
			continue
		}
		if sub.Emitter != "" && ev.Emitter != sub.Emitter {
			continue
		}

		reshaped, err := reshapeNotification(msg, ev, sub.Query)
		if err != nil {
			c.lg.Warn("failed to reshape event notification",
				"id", msg.ID.String(), "event", ev.Name, "error", err)
			c.metrics.dropped()
			continue
		}
		c.invoke(sub, reshaped)
	}
}

func (c *Client) invoke(sub *Subscription, msg *rpc.Response) {
	c.metrics.invoked()
	sub.handler(msg)
}

// reshapeNotification rebuilds a push envelope around a single decoded
// event, keeping the original version and ID so the handler can still
// attribute it.
func reshapeNotification(msg *rpc.Response, ev Event, query string) (*rpc.Response, error) {
	result, err := json.Marshal(EventNotification{Event: ev, Query: query})
	if err != nil {
		return nil, err
	}
	return &rpc.Response{
		Version: msg.Version,
		ID:      msg.ID,
		Result:  result,
	}, nil
}
