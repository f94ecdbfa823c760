package session

import (
	"errors"
	"testing"
)

func TestSetMembersDerivesLocalRelation(t *testing.T) {
	cases := []struct {
		name         string
		members      []Member
		localID      string
		wantRelation string
		wantErr      bool
	}{
		{
			name:         "local user is a player",
			members:      []Member{{ID: "u1", Name: "Ann", Relation: RelationPlayer}},
			localID:      "u1",
			wantRelation: RelationPlayer,
		},
		{
			name: "local user is the host",
			members: []Member{
				{ID: "u1", Name: "Ann", Relation: RelationPlayer},
				{ID: "u2", Name: "Bob", Relation: RelationHost},
			},
			localID:      "u2",
			wantRelation: RelationHost,
		},
		{
			name:    "local user missing from snapshot",
			members: []Member{{ID: "u1", Name: "Ann", Relation: RelationPlayer}},
			localID: "u9",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newState("room.42")
			s.Relation = "stale"
			err := s.setMembers(tc.members, tc.localID)
			if tc.wantErr {
				if !errors.Is(err, ErrLocalMemberMissing) {
					t.Fatalf("err = %v, want ErrLocalMemberMissing", err)
				}
				if s.Relation != "" {
					t.Fatalf("relation = %q, want stale value cleared", s.Relation)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if s.Relation != tc.wantRelation {
				t.Fatalf("relation = %q, want %q", s.Relation, tc.wantRelation)
			}
		})
	}
}

func TestMembershipUniqueByID(t *testing.T) {
	s := newState("room.42")
	s.addMember(Member{ID: "u1", Name: "Ann", Relation: RelationPlayer})
	s.addMember(Member{ID: "u2", Name: "Bob", Relation: RelationPlayer})
	s.addMember(Member{ID: "u1", Name: "Ann Updated", Relation: RelationPlayer})

	if len(s.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(s.Members))
	}
	if s.Members[0].Name != "Ann Updated" {
		t.Fatalf("duplicate join should replace the entry, got %q", s.Members[0].Name)
	}

	s.removeMember("u1")
	if len(s.Members) != 1 || s.Members[0].ID != "u2" {
		t.Fatalf("remove left %+v", s.Members)
	}
	// Removing an unknown id is a no-op.
	s.removeMember("u9")
	if len(s.Members) != 1 {
		t.Fatalf("unexpected removal: %+v", s.Members)
	}
}

func TestScoreOfMissingIDDefaultsToZero(t *testing.T) {
	s := newState("room.42")
	s.Leaderboard = []LeaderboardRow{
		{ID: "u1", Name: "Ann", Score: 7},
		{ID: "u2", Name: "Bob", Score: 3},
	}
	if got := s.scoreOf("u2"); got != 3 {
		t.Fatalf("scoreOf(u2) = %d, want 3", got)
	}
	if got := s.scoreOf("u9"); got != 0 {
		t.Fatalf("scoreOf(u9) = %d, want 0", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newState("room.42")
	s.addMember(Member{ID: "u1", Name: "Ann", Relation: RelationPlayer})
	s.Round = &Round{Question: "Q1"}

	snap := s.Snapshot()
	snap.Members[0].Name = "mutated"
	snap.Round.Question = "mutated"

	if s.Members[0].Name != "Ann" || s.Round.Question != "Q1" {
		t.Fatalf("snapshot mutation leaked into state: %+v %+v", s.Members, s.Round)
	}
}
