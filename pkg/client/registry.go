package client

import (
	"strings"
	"sync"

	"github.com/meridianlabs/meridian-go/pkg/rpc"
)

// MessageHandler consumes envelopes delivered to one subscription.
// Handlers run on the routing goroutine and must not block it.
type MessageHandler func(msg *rpc.Response)

// Subscription is one registered event stream.
type Subscription struct {
	// ID is the node-assigned subscription identifier.
	ID string
	// Event is the event name the caller subscribed to.
	Event string
	// Emitter optionally narrows application events to one emitter.
	Emitter string
	// Query is the query string sent to the node, kept verbatim because
	// unsubscribing identifies the subscription by query content.
	Query string

	handler MessageHandler
}

// Registry tracks the live subscriptions of one client. Safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscription)}
}

// Register adds a subscription under its node-assigned ID. A second
// registration for the same ID fails with ErrDuplicateSubscription and
// leaves the first untouched.
func (r *Registry) Register(sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub.ID]; exists {
		return ErrDuplicateSubscription
	}
	r.subs[sub.ID] = sub
	return nil
}

// Lookup returns the subscription with the given ID, if any.
func (r *Registry) Lookup(id string) (*Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	return sub, ok
}

// Remove deletes and returns the subscription with the given ID, or
// ErrNotSubscribed when there is none.
func (r *Registry) Remove(id string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok {
		return nil, ErrNotSubscribed
	}
	delete(r.subs, id)
	return sub, nil
}

// Matching snapshots the subscriptions a push envelope belongs to. The
// node composes envelope IDs from subscription IDs, so ownership is a
// containment test on the envelope ID rather than equality.
func (r *Registry) Matching(envelopeID string) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Subscription
	for id, sub := range r.subs {
		if strings.Contains(envelopeID, id) {
			matched = append(matched, sub)
		}
	}
	return matched
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}

// Clear drops all subscriptions, returning how many were registered.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.subs)
	r.subs = make(map[string]*Subscription)
	return n
}
