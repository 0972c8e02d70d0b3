package calls

import (
	"sort"
	"testing"
)

func TestJoinCallReturnsExistingParticipants(t *testing.T) {
	ro := NewRoster()

	if existing := ro.JoinCall("room", "c1"); len(existing) != 0 {
		t.Errorf("first joiner should see nobody, got %v", existing)
	}
	if existing := ro.JoinCall("room", "c2"); len(existing) != 1 || existing[0] != "c1" {
		t.Errorf("second joiner should see c1, got %v", existing)
	}

	existing := ro.JoinCall("room", "c3")
	sort.Strings(existing)
	if len(existing) != 2 || existing[0] != "c1" || existing[1] != "c2" {
		t.Errorf("third joiner should see c1 and c2, got %v", existing)
	}
}

func TestJoinCallTwiceDoesNotListSelf(t *testing.T) {
	ro := NewRoster()
	ro.JoinCall("room", "c1")
	if existing := ro.JoinCall("room", "c1"); len(existing) != 0 {
		t.Errorf("re-joining should not list self, got %v", existing)
	}
	if got := ro.Participants("room"); len(got) != 1 {
		t.Errorf("expected single participant, got %v", got)
	}
}

func TestLeaveCallDeletesEmptyEntry(t *testing.T) {
	ro := NewRoster()
	ro.JoinCall("room", "c1")

	if !ro.LeaveCall("room", "c1") {
		t.Error("expected leave to succeed")
	}
	if got := ro.Participants("room"); got != nil {
		t.Errorf("expected roster entry removed, got %v", got)
	}
}

func TestLeaveCallNoOps(t *testing.T) {
	ro := NewRoster()
	if ro.LeaveCall("nope", "c1") {
		t.Error("leaving an unknown call should be a no-op")
	}
	ro.JoinCall("room", "c1")
	if ro.LeaveCall("room", "c2") {
		t.Error("leaving a call you are not in should be a no-op")
	}
}

func TestRemoveConnectionEverywhere(t *testing.T) {
	ro := NewRoster()
	ro.JoinCall("r1", "c1")
	ro.JoinCall("r1", "c2")
	ro.JoinCall("r2", "c1")

	affected := ro.RemoveConnectionEverywhere("c1")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected calls, got %v", affected)
	}
	if got := ro.Participants("r2"); got != nil {
		t.Errorf("expected r2 call removed, got %v", got)
	}
	if got := ro.Participants("r1"); len(got) != 1 || got[0] != "c2" {
		t.Errorf("expected c2 left in r1, got %v", got)
	}

	if affected := ro.RemoveConnectionEverywhere("c1"); len(affected) != 0 {
		t.Errorf("repeat cleanup should be a no-op, got %v", affected)
	}
}

func TestParticipantCount(t *testing.T) {
	ro := NewRoster()
	ro.JoinCall("r1", "c1")
	ro.JoinCall("r1", "c2")
	ro.JoinCall("r2", "c3")

	if n := ro.ParticipantCount(); n != 3 {
		t.Errorf("expected 3 participants, got %d", n)
	}
}
