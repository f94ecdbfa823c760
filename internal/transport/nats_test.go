package transport

import (
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestSubjectNaming(t *testing.T) {
	if got := subject("room.42", "events"); got != "rooms.room.42.events" {
		t.Fatalf("subject = %q", got)
	}
	if got := subject("room.42", "whisper.answered"); got != "rooms.room.42.whisper.answered" {
		t.Fatalf("subject = %q", got)
	}
}

func TestChannelDropsOwnWhisper(t *testing.T) {
	var received []string
	ch := &natsChannel{
		connID: "me",
		handlers: Handlers{
			OnWhisper: func(name string, data json.RawMessage) {
				received = append(received, name)
			},
		},
	}

	own, _ := json.Marshal(whisperEnvelope{From: "me", Event: "answered", Data: json.RawMessage(`{"answered":1}`)})
	peer, _ := json.Marshal(whisperEnvelope{From: "peer", Event: "answered", Data: json.RawMessage(`{"answered":2}`)})

	ch.onWhisper(&nats.Msg{Data: own})
	ch.onWhisper(&nats.Msg{Data: peer})

	if len(received) != 1 || received[0] != "answered" {
		t.Fatalf("received = %v, want only the peer whisper", received)
	}
}

func TestChannelSkipsOwnPresence(t *testing.T) {
	joins := 0
	ch := &natsChannel{
		identity: MemberInfo{ID: "u1"},
		handlers: Handlers{
			OnJoining: func(member MemberInfo) { joins++ },
		},
	}

	self, _ := json.Marshal(MemberInfo{ID: "u1", Name: "Ann"})
	other, _ := json.Marshal(MemberInfo{ID: "u2", Name: "Bob"})

	ch.onJoining(&nats.Msg{Data: self})
	ch.onJoining(&nats.Msg{Data: other})

	if joins != 1 {
		t.Fatalf("joins = %d, want 1 (own presence echo skipped)", joins)
	}
}

func TestMalformedEventIsDropped(t *testing.T) {
	events := 0
	ch := &natsChannel{
		handlers: Handlers{
			OnEvent: func(name string, data json.RawMessage) { events++ },
		},
	}

	ch.onEvent(&nats.Msg{Data: []byte("not json")})
	ch.onEvent(&nats.Msg{Data: []byte(`{"event":"SendQuiz","data":{}}`)})

	if events != 1 {
		t.Fatalf("events = %d, want 1", events)
	}
}
