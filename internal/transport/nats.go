package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds connection settings for the broadcast service.
type NATSConfig struct {
	URL           string
	Name          string // client connection name
	MaxReconnects int
	ReconnectWait time.Duration
	JoinTimeout   time.Duration
}

// DefaultNATSConfig returns the default broadcast connection settings.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "quizroom-client",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		JoinTimeout:   10 * time.Second,
	}
}

// NATSTransport implements Transport over the platform's NATS broadcast
// service. Room channels map onto per-room subjects; presence and whispers
// are server-side concerns this client only subscribes to.
type NATSTransport struct {
	nc  *nats.Conn
	cfg NATSConfig

	mu       sync.Mutex
	channels map[string]*natsChannel
	closed   bool
}

func NewNATS(cfg NATSConfig) (*NATSTransport, error) {
	t := &NATSTransport{
		cfg:      cfg,
		channels: make(map[string]*natsChannel),
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("broadcast connection lost")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("broadcast connection restored")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("broadcast error")
			t.fanOutError(err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				t.fanOutError(fmt.Errorf("broadcast connection closed"))
			}
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to broadcast service: %w", err)
	}
	t.nc = nc
	return t, nil
}

func (t *NATSTransport) fanOutError(err error) {
	t.mu.Lock()
	channels := make([]*natsChannel, 0, len(t.channels))
	for _, ch := range t.channels {
		channels = append(channels, ch)
	}
	t.mu.Unlock()

	for _, ch := range channels {
		if ch.handlers.OnError != nil {
			ch.handlers.OnError(err)
		}
	}
}

type joinRequest struct {
	ConnID string     `json:"conn_id"`
	Member MemberInfo `json:"member"`
}

type eventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type whisperEnvelope struct {
	From  string          `json:"from"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Join subscribes to the room's subjects and requests the membership
// snapshot from the channel service. The join wait is bounded by
// JoinTimeout unless ctx is stricter.
func (t *NATSTransport) Join(ctx context.Context, room string, identity MemberInfo, handlers Handlers) (Channel, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, fmt.Errorf("transport closed")
	}
	t.mu.Unlock()

	ch := &natsChannel{
		transport: t,
		room:      room,
		connID:    uuid.NewString(),
		identity:  identity,
		handlers:  handlers,
	}

	if err := ch.subscribe(); err != nil {
		ch.Leave()
		return nil, err
	}

	joinCtx, cancel := context.WithTimeout(ctx, t.cfg.JoinTimeout)
	defer cancel()

	payload, err := json.Marshal(joinRequest{ConnID: ch.connID, Member: identity})
	if err != nil {
		ch.Leave()
		return nil, fmt.Errorf("marshal join request: %w", err)
	}

	msg, err := t.nc.RequestWithContext(joinCtx, subject(room, "join"), payload)
	if err != nil {
		ch.Leave()
		return nil, fmt.Errorf("join room %s: %w", room, err)
	}

	var members []MemberInfo
	if err := json.Unmarshal(msg.Data, &members); err != nil {
		ch.Leave()
		return nil, fmt.Errorf("decode membership snapshot: %w", err)
	}

	ch.joined = true

	t.mu.Lock()
	t.channels[room] = ch
	t.mu.Unlock()

	log.Info().Str("room", room).Int("members", len(members)).Msg("joined room channel")

	if handlers.OnHere != nil {
		handlers.OnHere(members)
	}
	return ch, nil
}

// Close leaves all channels and drops the broadcast connection.
func (t *NATSTransport) Close() {
	t.mu.Lock()
	t.closed = true
	channels := make([]*natsChannel, 0, len(t.channels))
	for _, ch := range t.channels {
		channels = append(channels, ch)
	}
	t.mu.Unlock()

	for _, ch := range channels {
		ch.Leave()
	}
	t.nc.Close()
}

func subject(room, suffix string) string {
	return fmt.Sprintf("rooms.%s.%s", room, suffix)
}

type natsChannel struct {
	transport *NATSTransport
	room      string
	connID    string
	identity  MemberInfo
	handlers  Handlers

	subs   []*nats.Subscription
	joined bool
	once   sync.Once
}

func (ch *natsChannel) subscribe() error {
	subs := []struct {
		subject string
		handler nats.MsgHandler
	}{
		{subject(ch.room, "events"), ch.onEvent},
		{subject(ch.room, "presence.joining"), ch.onJoining},
		{subject(ch.room, "presence.leaving"), ch.onLeaving},
		{subject(ch.room, "whisper.>"), ch.onWhisper},
	}
	for _, s := range subs {
		sub, err := ch.transport.nc.Subscribe(s.subject, s.handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.subject, err)
		}
		ch.subs = append(ch.subs, sub)
	}
	return nil
}

func (ch *natsChannel) onEvent(msg *nats.Msg) {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		log.Warn().Err(err).Str("room", ch.room).Msg("dropping malformed room event")
		return
	}
	if ch.handlers.OnEvent != nil {
		ch.handlers.OnEvent(envelope.Event, envelope.Data)
	}
}

func (ch *natsChannel) onJoining(msg *nats.Msg) {
	var member MemberInfo
	if err := json.Unmarshal(msg.Data, &member); err != nil {
		log.Warn().Err(err).Str("room", ch.room).Msg("dropping malformed presence event")
		return
	}
	if member.ID == ch.identity.ID {
		return
	}
	if ch.handlers.OnJoining != nil {
		ch.handlers.OnJoining(member)
	}
}

func (ch *natsChannel) onLeaving(msg *nats.Msg) {
	var member MemberInfo
	if err := json.Unmarshal(msg.Data, &member); err != nil {
		log.Warn().Err(err).Str("room", ch.room).Msg("dropping malformed presence event")
		return
	}
	if member.ID == ch.identity.ID {
		return
	}
	if ch.handlers.OnLeaving != nil {
		ch.handlers.OnLeaving(member)
	}
}

func (ch *natsChannel) onWhisper(msg *nats.Msg) {
	var envelope whisperEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		log.Warn().Err(err).Str("room", ch.room).Msg("dropping malformed whisper")
		return
	}
	// Whispers echo back on the shared subject; skip our own.
	if envelope.From == ch.connID {
		return
	}
	if ch.handlers.OnWhisper != nil {
		ch.handlers.OnWhisper(envelope.Event, envelope.Data)
	}
}

func (ch *natsChannel) Whisper(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whisper payload: %w", err)
	}
	envelope, err := json.Marshal(whisperEnvelope{From: ch.connID, Event: name, Data: data})
	if err != nil {
		return fmt.Errorf("marshal whisper envelope: %w", err)
	}
	if err := ch.transport.nc.Publish(subject(ch.room, "whisper."+name), envelope); err != nil {
		return fmt.Errorf("whisper %s: %w", name, err)
	}
	return nil
}

func (ch *natsChannel) Leave() {
	ch.once.Do(func() {
		for _, sub := range ch.subs {
			if err := sub.Unsubscribe(); err != nil {
				log.Warn().Err(err).Str("room", ch.room).Msg("unsubscribe failed")
			}
		}
		if ch.joined {
			if payload, err := json.Marshal(ch.identity); err == nil {
				if err := ch.transport.nc.Publish(subject(ch.room, "leave"), payload); err != nil {
					log.Warn().Err(err).Str("room", ch.room).Msg("leave announce failed")
				}
			}
		}

		ch.transport.mu.Lock()
		if ch.transport.channels[ch.room] == ch {
			delete(ch.transport.channels, ch.room)
		}
		ch.transport.mu.Unlock()

		log.Info().Str("room", ch.room).Msg("left room channel")
	})
}
