// Package session holds the per-room game state and the controller that
// drives it from server-pushed channel events.
package session

import (
	"errors"
	"time"
)

// ErrLocalMemberMissing is reported when a membership snapshot does not
// contain the local user. The join payload must always include them.
var ErrLocalMemberMissing = errors.New("session: local user missing from membership snapshot")

// Status is the lifecycle of a room session. Terminated is absorbing; the
// controller navigates away once it is reached.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPlaying    Status = "playing"
	StatusFinished   Status = "finished"
	StatusTerminated Status = "terminated"
)

// Member is one channel participant. Relation distinguishes the host from
// players.
type Member struct {
	ID       string
	Name     string
	Relation string
}

const (
	RelationHost   = "host"
	RelationPlayer = "player"
)

// Round is the quiz question currently in play. Deadline is the absolute
// server-declared end of the round; the local countdown only approximates
// it for display.
type Round struct {
	Question string
	Answer   string
	Answered int
	Deadline time.Time
}

// LeaderboardRow is one scored participant, in server order (descending by
// score, ties as received).
type LeaderboardRow struct {
	ID    string
	Name  string
	Email string
	Score int
}

// State is the per-room session record. It is owned by the Controller;
// everything else reads copies via Snapshot.
type State struct {
	RoomToken   string
	Status      Status
	Members     []Member
	Relation    string
	Round       *Round
	Leaderboard []LeaderboardRow
	Score       int
}

func newState(roomToken string) *State {
	return &State{
		RoomToken: roomToken,
		Status:    StatusIdle,
	}
}

// setMembers replaces the membership set and derives the local relation by
// identifier lookup. The snapshot must contain localID.
func (s *State) setMembers(members []Member, localID string) error {
	s.Members = members
	for _, m := range members {
		if m.ID == localID {
			s.Relation = m.Relation
			return nil
		}
	}
	// Do not keep a stale relation around when the invariant is broken.
	s.Relation = ""
	return ErrLocalMemberMissing
}

// addMember appends a member, keeping the set unique by identifier.
func (s *State) addMember(member Member) {
	for i, m := range s.Members {
		if m.ID == member.ID {
			s.Members[i] = member
			return
		}
	}
	s.Members = append(s.Members, member)
}

func (s *State) removeMember(id string) {
	for i, m := range s.Members {
		if m.ID == id {
			s.Members = append(s.Members[:i], s.Members[i+1:]...)
			return
		}
	}
}

// scoreOf looks up a participant's score on the leaderboard. Absence is
// not an error; a malformed payload degrades to zero.
func (s *State) scoreOf(id string) int {
	for _, row := range s.Leaderboard {
		if row.ID == id {
			return row.Score
		}
	}
	return 0
}

// Snapshot returns a copy safe to hand to presentation code.
func (s *State) Snapshot() State {
	out := *s
	out.Members = append([]Member(nil), s.Members...)
	out.Leaderboard = append([]LeaderboardRow(nil), s.Leaderboard...)
	if s.Round != nil {
		round := *s.Round
		out.Round = &round
	}
	return out
}
