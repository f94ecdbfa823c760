// Package transport is the boundary to the platform's broadcast channel
// service. The client never speaks the broadcast protocol itself; it binds
// a fixed set of typed callbacks to a named room channel.
package transport

import (
	"context"
	"encoding/json"
)

// MemberInfo is the presence payload for one channel member.
type MemberInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

// Handlers is the fixed subscription set for a room channel. Nil handlers
// are skipped. OnHere fires once with the full membership snapshot after a
// successful join; OnError reports asynchronous channel failures.
type Handlers struct {
	OnEvent   func(name string, data json.RawMessage)
	OnHere    func(members []MemberInfo)
	OnJoining func(member MemberInfo)
	OnLeaving func(member MemberInfo)
	OnWhisper func(name string, data json.RawMessage)
	OnError   func(err error)
}

// Channel is a live subscription to one room.
type Channel interface {
	// Whisper broadcasts a client-to-client event to the other members.
	// Fire-and-forget: no ack, no retry.
	Whisper(name string, payload any) error

	// Leave tears down the subscription. Idempotent.
	Leave()
}

// Transport joins room channels. One Transport is created per
// authenticated session and closed on logout.
type Transport interface {
	Join(ctx context.Context, room string, identity MemberInfo, handlers Handlers) (Channel, error)
	Close()
}
