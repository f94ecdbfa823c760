package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the server events pushed over the room channel.
type EventType string

const (
	EventOpenRoom        EventType = "OpenRoom"
	EventStopRoom        EventType = "StopRoom"
	EventRemovePlayer    EventType = "RemovePlayer"
	EventSendQuiz        EventType = "SendQuiz"
	EventSendLeaderboard EventType = "SendLeaderboard"

	// WhisperAnswered is the peer broadcast players send after answering.
	WhisperAnswered = "answered"
)

// UnknownEventError marks an event the client does not recognize. It is
// recoverable: log and drop, never crash the session.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("session: unknown event %q", e.Name)
}

// deadlineLayout is the fixed-offset timestamp format the server uses for
// round deadlines, e.g. "2024-01-01T00:00:10 UTC".
const deadlineLayout = "2006-01-02T15:04:05 MST"

type OpenRoomPayload struct {
	Message string `json:"message"`
}

type StopRoomPayload struct {
	Message string `json:"message"`
}

// RemovePlayerPayload carries the removed player's identifier in Data.
type RemovePlayerPayload struct {
	Data    string `json:"data"`
	Message string `json:"message"`
}

type SendQuizPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Answered int    `json:"answered"`
	Time     string `json:"time"`
}

// Deadline parses the server's round deadline.
func (p SendQuizPayload) Deadline() (time.Time, error) {
	return parseDeadline(p.Time)
}

func parseDeadline(value string) (time.Time, error) {
	deadline, err := time.Parse(deadlineLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse round deadline %q: %w", value, err)
	}
	return deadline, nil
}

type SendLeaderboardPayload struct {
	Data    []LeaderboardEntry `json:"data"`
	Message string             `json:"message"`
}

type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Score int    `json:"score"`
}

type AnsweredWhisper struct {
	Answered int `json:"answered"`
}

// ParsePayload validates a raw channel event against the known shapes.
// Unknown names yield *UnknownEventError; malformed bodies yield a wrapped
// decode error. Both are recoverable.
func ParsePayload(name string, data json.RawMessage) (any, error) {
	switch EventType(name) {
	case EventOpenRoom:
		var payload OpenRoomPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return payload, nil

	case EventStopRoom:
		var payload StopRoomPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return payload, nil

	case EventRemovePlayer:
		var payload RemovePlayerPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return payload, nil

	case EventSendQuiz:
		var payload SendQuizPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return payload, nil

	case EventSendLeaderboard:
		var payload SendLeaderboardPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return payload, nil

	default:
		return nil, &UnknownEventError{Name: name}
	}
}
