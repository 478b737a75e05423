// Package notify publishes domain events after a state change commits, so
// integrations (chat bots, push workers) can react without polling.
package notify

import (
	"context"
	"sync"
	"time"
)

// Routing keys.
const (
	EventCreated        = "event.created"
	EventPlanUpdated    = "event.plan_updated"
	EventStatusChanged  = "event.status_changed"
	EventDeleted        = "event.deleted"
	MembershipInvited   = "membership.invited"
	MembershipAccepted  = "membership.accepted"
	MembershipRemoved   = "membership.removed"
	EventMessagePosted  = "event.message_posted"
	FriendshipRequested = "friendship.requested"
	FriendshipAccepted  = "friendship.accepted"
)

// Message is the payload of every published domain event.
type Message struct {
	Key       string            `json:"key"`
	EventID   string            `json:"event_id,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	At        time.Time         `json:"at"`
}

// Publisher delivers domain events. Publishing is best effort: a failure
// never undoes the committed change.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }

// Recorder keeps published messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.messages))
	for i, m := range r.messages {
		keys[i] = m.Key
	}
	return keys
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
