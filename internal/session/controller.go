package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizroom/client/internal/api"
	"quizroom/client/internal/transport"
)

var (
	// ErrNotPlaying rejects an answer submitted outside a running round.
	// The HTTP call is never issued.
	ErrNotPlaying = errors.New("session: no round in play")

	// ErrNoRoom is returned when an operation needs an active room token.
	ErrNoRoom = errors.New("session: no active room")
)

// Notifier surfaces transient user-facing messages, the toast equivalent.
type Notifier interface {
	Success(detail string)
	Info(detail string)
	Error(detail string)
}

// Navigator performs navigation side effects when a session ends.
type Navigator interface {
	Home()
}

// GameService is the slice of the REST API the controller needs.
type GameService interface {
	CreateGame(ctx context.Context, questionnaireID string) (string, error)
	JoinGame(ctx context.Context, gameID string) (string, error)
	Status(ctx context.Context, code string) (*api.GameStatus, error)
	SubmitAnswer(ctx context.Context, code, answer string) error
}

// RoomStore persists the single active room token across restarts. The
// controller is its only writer.
type RoomStore interface {
	Room() string
	SetRoom(token string) error
	ClearRoom() error
}

// Config wires a Controller. Clock defaults to the real clock.
type Config struct {
	Games     GameService
	Transport transport.Transport
	Rooms     RoomStore
	Notify    Notifier
	Nav       Navigator
	Clock     clockwork.Clock
	Local     Member
	OnTick    func(remaining int)
}

// Controller owns the channel subscription lifecycle for one room and is
// the only mutator of the session State. Every server event maps to
// exactly one state mutation plus optional notification and navigation.
type Controller struct {
	games     GameService
	transport transport.Transport
	rooms     RoomStore
	notify    Notifier
	nav       Navigator
	local     Member

	countdown *Countdown

	mu      sync.Mutex
	open    bool
	state   *State
	channel transport.Channel
}

func NewController(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		games:     cfg.Games,
		transport: cfg.Transport,
		rooms:     cfg.Rooms,
		notify:    cfg.Notify,
		nav:       cfg.Nav,
		local:     cfg.Local,
		countdown: NewCountdown(clock, cfg.OnTick),
	}
}

// CreateRoom opens a new room for a questionnaire and stores its token.
func (c *Controller) CreateRoom(ctx context.Context, questionnaireID string) (string, error) {
	id, err := c.games.CreateGame(ctx, questionnaireID)
	if err != nil {
		c.notify.Error("could not create room")
		return "", err
	}
	token := "room." + id
	if err := c.rooms.SetRoom(token); err != nil {
		return "", fmt.Errorf("store room token: %w", err)
	}
	c.notify.Success("room created")
	return token, nil
}

// JoinRoom joins an existing room and stores its token.
func (c *Controller) JoinRoom(ctx context.Context, gameID string) (string, error) {
	id, err := c.games.JoinGame(ctx, gameID)
	if err != nil {
		c.notify.Error("could not join room")
		return "", err
	}
	token := "room." + id
	if err := c.rooms.SetRoom(token); err != nil {
		return "", fmt.Errorf("store room token: %w", err)
	}
	return token, nil
}

// Open subscribes to the room channel named by roomToken. Calling Open
// again before Close is a no-op; one subscription exists per session.
func (c *Controller) Open(ctx context.Context, roomToken string) error {
	if roomToken == "" {
		return ErrNoRoom
	}

	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		log.Warn().Str("room", roomToken).Msg("room already open, ignoring duplicate subscribe")
		return nil
	}
	c.state = newState(roomToken)
	c.open = true
	c.mu.Unlock()

	identity := transport.MemberInfo{ID: c.local.ID, Name: c.local.Name}
	channel, err := c.transport.Join(ctx, roomToken, identity, transport.Handlers{
		OnEvent:   c.onEvent,
		OnHere:    c.onHere,
		OnJoining: c.onJoining,
		OnLeaving: c.onLeaving,
		OnWhisper: c.onWhisper,
		OnError:   c.onChannelError,
	})
	if err != nil {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		return fmt.Errorf("open room %s: %w", roomToken, err)
	}

	c.mu.Lock()
	if !c.open {
		// Terminated while the join was in flight.
		c.mu.Unlock()
		channel.Leave()
		return nil
	}
	c.channel = channel
	c.mu.Unlock()
	return nil
}

// Close unsubscribes from the room channel. Idempotent; queued events
// delivered after Close mutate nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	channel := c.channel
	c.channel = nil
	c.mu.Unlock()

	c.countdown.Stop()
	if channel != nil {
		channel.Leave()
	}
}

// LeaveRoom is the explicit user exit: unsubscribe and drop the token.
func (c *Controller) LeaveRoom() {
	c.Close()
	if err := c.rooms.ClearRoom(); err != nil {
		log.Warn().Err(err).Msg("clear room token failed")
	}
}

// SubmitAnswer posts the local answer for the current round. Rejected
// locally unless a round is playing; on success the shared answered count
// is bumped and whispered to peers best-effort.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) error {
	c.mu.Lock()
	if !c.open || c.state.Status != StatusPlaying {
		c.mu.Unlock()
		return ErrNotPlaying
	}
	code := roomCode(c.state.RoomToken)
	c.mu.Unlock()

	if err := c.games.SubmitAnswer(ctx, code, text); err != nil {
		c.notify.Error("answer was not accepted")
		return err
	}

	c.mu.Lock()
	var channel transport.Channel
	answered := 0
	if c.open && c.state.Round != nil {
		c.state.Round.Answered++
		answered = c.state.Round.Answered
		channel = c.channel
	}
	c.mu.Unlock()

	if channel != nil {
		if err := channel.Whisper(WhisperAnswered, AnsweredWhisper{Answered: answered}); err != nil {
			log.Warn().Err(err).Msg("answered whisper failed")
		}
	}
	return nil
}

// FetchStatus resynchronizes the session from the room status endpoint.
// Used on (re)entry to pull a round or leaderboard the client missed.
// Failure is non-fatal: notify and leave state unchanged.
func (c *Controller) FetchStatus(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNoRoom
	}
	code := roomCode(c.state.RoomToken)
	c.mu.Unlock()

	status, err := c.games.Status(ctx, code)
	if err != nil {
		c.notify.Error("could not refresh room status")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}

	switch status.Status {
	case string(StatusPlaying):
		deadline, err := parseDeadline(status.Time)
		if err != nil {
			log.Warn().Err(err).Msg("status carried unusable deadline")
			c.notify.Error("could not refresh room status")
			return err
		}
		c.state.Round = &Round{
			Question: status.Question,
			Answer:   status.Answer,
			Answered: status.Answered,
			Deadline: deadline,
		}
		c.state.Status = StatusPlaying
		c.countdown.Start(deadline)

	case string(StatusFinished):
		c.state.Leaderboard = leaderboardFromStatus(status.Leaderboard)
		c.state.Status = StatusFinished
		c.state.Score = status.Score
		c.state.Round = nil
		c.countdown.Stop()

	case string(StatusIdle):
		c.state.Status = StatusIdle

	default:
		log.Warn().Str("status", status.Status).Msg("unknown room status")
	}
	return nil
}

// Snapshot returns a read-only copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return State{}
	}
	return c.state.Snapshot()
}

// Remaining reports the countdown's remaining seconds.
func (c *Controller) Remaining() int {
	return c.countdown.Remaining()
}

// onHere receives the full membership snapshot after joining and triggers
// resynchronization for anything missed by joining late.
func (c *Controller) onHere(infos []transport.MemberInfo) {
	members := make([]Member, 0, len(infos))
	for _, m := range infos {
		members = append(members, Member{ID: m.ID, Name: m.Name, Relation: m.Relation})
	}

	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	err := c.state.setMembers(members, c.local.ID)
	c.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("local_id", c.local.ID).Msg("membership snapshot missing local user")
		c.notify.Error("room membership is inconsistent")
		return
	}

	if err := c.FetchStatus(context.Background()); err != nil {
		log.Warn().Err(err).Msg("resynchronization failed")
	}
}

func (c *Controller) onJoining(info transport.MemberInfo) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.state.addMember(Member{ID: info.ID, Name: info.Name, Relation: info.Relation})
	c.mu.Unlock()
	c.notify.Info(info.Name + " joined the room")
}

func (c *Controller) onLeaving(info transport.MemberInfo) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.state.removeMember(info.ID)
	c.mu.Unlock()
	c.notify.Info(info.Name + " left the room")
}

// onEvent routes a named server event to exactly one state mutation.
func (c *Controller) onEvent(name string, data json.RawMessage) {
	payload, err := ParsePayload(name, data)
	if err != nil {
		var unknown *UnknownEventError
		if errors.As(err, &unknown) {
			log.Warn().Str("event", name).Msg("dropping unknown room event")
		} else {
			log.Warn().Err(err).Str("event", name).Msg("dropping malformed room event")
		}
		return
	}

	switch p := payload.(type) {
	case OpenRoomPayload:
		c.notify.Success(p.Message)

	case StopRoomPayload:
		c.terminate(p.Message, false)

	case RemovePlayerPayload:
		if p.Data == c.local.ID {
			c.terminate("you were removed from the room", false)
		}

	case SendQuizPayload:
		c.applyQuiz(p)

	case SendLeaderboardPayload:
		c.applyLeaderboard(p)
	}
}

func (c *Controller) applyQuiz(p SendQuizPayload) {
	deadline, err := p.Deadline()
	if err != nil {
		log.Warn().Err(err).Msg("dropping quiz with unusable deadline")
		return
	}

	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.state.Round = &Round{
		Question: p.Question,
		Answer:   p.Answer,
		Answered: p.Answered,
		Deadline: deadline,
	}
	c.state.Status = StatusPlaying
	c.state.Leaderboard = nil
	// Started under the lock so a concurrent Close cannot slip in between
	// the mutation and the ticker; Close's Stop then always wins.
	c.countdown.Start(deadline)
	c.mu.Unlock()
}

// applyLeaderboard finishes the round. Events race last-write-wins: a
// leaderboard arriving before any quiz (fresh join at finish) is valid.
func (c *Controller) applyLeaderboard(p SendLeaderboardPayload) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	rows := make([]LeaderboardRow, 0, len(p.Data))
	for _, entry := range p.Data {
		rows = append(rows, LeaderboardRow{ID: entry.ID, Name: entry.Name, Email: entry.Email, Score: entry.Score})
	}
	c.state.Leaderboard = rows
	c.state.Status = StatusFinished
	c.state.Score = c.state.scoreOf(c.local.ID)
	c.state.Round = nil
	c.mu.Unlock()

	c.countdown.Stop()
}

func (c *Controller) onWhisper(name string, data json.RawMessage) {
	if name != WhisperAnswered {
		log.Debug().Str("whisper", name).Msg("ignoring unknown whisper")
		return
	}
	var w AnsweredWhisper
	if err := json.Unmarshal(data, &w); err != nil {
		log.Warn().Err(err).Msg("dropping malformed answered whisper")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || c.state.Round == nil {
		return
	}
	// Display counter only; tolerate out-of-order whispers.
	if w.Answered > c.state.Round.Answered {
		c.state.Round.Answered = w.Answered
	}
}

// onChannelError treats any channel failure as fatal for the session.
func (c *Controller) onChannelError(err error) {
	log.Error().Err(err).Msg("room channel error")
	c.terminate("connection to the room was lost", true)
}

// terminate ends the session: leave the channel, clear the stored token,
// mark terminated, navigate home exactly once.
func (c *Controller) terminate(detail string, isErr bool) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	channel := c.channel
	c.channel = nil
	c.state.Status = StatusTerminated
	c.mu.Unlock()

	c.countdown.Stop()
	if channel != nil {
		channel.Leave()
	}
	if err := c.rooms.ClearRoom(); err != nil {
		log.Warn().Err(err).Msg("clear room token failed")
	}
	c.nav.Home()
	if isErr {
		c.notify.Error(detail)
	} else {
		c.notify.Info(detail)
	}
}

func leaderboardFromStatus(rows []api.LeaderboardRow) []LeaderboardRow {
	out := make([]LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, LeaderboardRow{ID: row.ID, Name: row.Name, Email: row.Email, Score: row.Score})
	}
	return out
}

// roomCode strips the "room." prefix from a stored token.
func roomCode(token string) string {
	if _, code, ok := strings.Cut(token, "."); ok {
		return code
	}
	return token
}
