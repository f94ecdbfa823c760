package session

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParsePayloadKnownEvents(t *testing.T) {
	cases := []struct {
		name  string
		event string
		data  string
		check func(t *testing.T, payload any)
	}{
		{
			name:  "open room",
			event: "OpenRoom",
			data:  `{"message":"room is open"}`,
			check: func(t *testing.T, payload any) {
				p, ok := payload.(OpenRoomPayload)
				if !ok || p.Message != "room is open" {
					t.Fatalf("payload = %#v", payload)
				}
			},
		},
		{
			name:  "remove player carries the target id",
			event: "RemovePlayer",
			data:  `{"data":"u1","message":"removed"}`,
			check: func(t *testing.T, payload any) {
				p, ok := payload.(RemovePlayerPayload)
				if !ok || p.Data != "u1" {
					t.Fatalf("payload = %#v", payload)
				}
			},
		},
		{
			name:  "send quiz",
			event: "SendQuiz",
			data:  `{"question":"Q1","answer":"A","answered":0,"time":"2024-01-01T00:00:10 UTC"}`,
			check: func(t *testing.T, payload any) {
				p, ok := payload.(SendQuizPayload)
				if !ok || p.Question != "Q1" {
					t.Fatalf("payload = %#v", payload)
				}
				deadline, err := p.Deadline()
				if err != nil {
					t.Fatalf("deadline: %v", err)
				}
				want := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
				if !deadline.Equal(want) {
					t.Fatalf("deadline = %v, want %v", deadline, want)
				}
			},
		},
		{
			name:  "send leaderboard",
			event: "SendLeaderboard",
			data:  `{"data":[{"id":"u1","name":"Ann","email":"ann@x.io","score":9}]}`,
			check: func(t *testing.T, payload any) {
				p, ok := payload.(SendLeaderboardPayload)
				if !ok || len(p.Data) != 1 || p.Data[0].Score != 9 {
					t.Fatalf("payload = %#v", payload)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := ParsePayload(tc.event, json.RawMessage(tc.data))
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			tc.check(t, payload)
		})
	}
}

func TestParsePayloadUnknownEvent(t *testing.T) {
	_, err := ParsePayload("SomethingElse", json.RawMessage(`{}`))
	var unknown *UnknownEventError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownEventError", err)
	}
}

func TestParsePayloadMalformedBody(t *testing.T) {
	_, err := ParsePayload("SendQuiz", json.RawMessage(`"not an object"`))
	if err == nil {
		t.Fatalf("expected decode error")
	}
	var unknown *UnknownEventError
	if errors.As(err, &unknown) {
		t.Fatalf("malformed body must not be classified as unknown event")
	}
}

func TestDeadlineRejectsBadTimestamp(t *testing.T) {
	p := SendQuizPayload{Time: "tomorrow-ish"}
	if _, err := p.Deadline(); err == nil {
		t.Fatalf("expected parse error")
	}
}
