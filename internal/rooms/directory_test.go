package rooms

import (
	"testing"

	"github.com/ujjwalshri/CodeColab/internal/registry"
)

func newTestDirectory() (*Directory, *registry.Registry) {
	reg := registry.New()
	return NewDirectory(reg), reg
}

func TestJoinCreatesRoomLazily(t *testing.T) {
	d, reg := newTestDirectory()
	reg.SetIdentity("conn-a", "user-a", "alice")

	snap := d.Join("ABC123", "conn-a")
	if snap.Code != "" || snap.Language != "" || snap.TerminalOutput != "" {
		t.Errorf("expected empty snapshot for fresh room, got %+v", snap)
	}
	if len(snap.Users) != 1 || snap.Users[0].Username != "alice" {
		t.Errorf("unexpected member list: %+v", snap.Users)
	}
	if d.Count() != 1 {
		t.Errorf("expected 1 room, got %d", d.Count())
	}
}

func TestJoinLeaveSymmetry(t *testing.T) {
	d, reg := newTestDirectory()
	conns := []string{"c1", "c2", "c3"}
	for _, c := range conns {
		reg.Register(c)
		d.Join("room", c)
	}

	for _, c := range conns {
		if !d.Leave("room", c) {
			t.Errorf("expected leave to succeed for %s", c)
		}
	}
	if d.Count() != 0 {
		t.Errorf("expected room to be gone after all members left, got %d rooms", d.Count())
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	d.Join("room", "c1")

	if d.Leave("room", "c2") {
		t.Error("leaving as a non-member should be a no-op")
	}
	if d.Leave("nope", "c1") {
		t.Error("leaving a nonexistent room should be a no-op")
	}
	if !d.Leave("room", "c1") {
		t.Error("expected member leave to succeed")
	}
	if d.Leave("room", "c1") {
		t.Error("second leave should be a no-op")
	}
}

func TestLastWriteWins(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	reg.Register("c2")
	d.Join("room", "c1")
	d.Join("room", "c2")

	d.UpdateCode("room", "print(0)", "python")
	d.UpdateCode("room", "print(1)", "python")

	reg.Register("c3")
	snap := d.Join("room", "c3")
	if snap.Code != "print(1)" || snap.Language != "python" {
		t.Errorf("expected last write to win, got %+v", snap)
	}
}

func TestInitializeOnceGuard(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	d.Join("room", "c1")

	if !d.InitializeIfEmpty("room", "a = 1", "python", "main.py") {
		t.Fatal("expected first initialize to apply")
	}
	if d.InitializeIfEmpty("room", "b = 2", "javascript", "index.js") {
		t.Error("expected second initialize to be rejected")
	}

	snap := d.Join("room", "c1")
	if snap.Code != "a = 1" || snap.Language != "python" || snap.FileName != "main.py" {
		t.Errorf("document should be untouched by late set-state, got %+v", snap)
	}
}

func TestInitializeAppliesWhenLanguageMissing(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	d.Join("room", "c1")

	d.UpdateCode("room", "print(1)", "")
	if !d.InitializeIfEmpty("room", "print(2)", "python", "main.py") {
		t.Error("initialize should apply while language is unset")
	}
}

func TestInitializeOnNonexistentRoom(t *testing.T) {
	d, _ := newTestDirectory()
	if d.InitializeIfEmpty("nope", "x", "python", "f.py") {
		t.Error("initialize on a nonexistent room should be a no-op")
	}
}

func TestMutationsOnNonexistentRoomDoNotPanic(t *testing.T) {
	d, _ := newTestDirectory()
	d.UpdateCode("nope", "x", "python")
	d.SetTerminal("nope", "out")
	d.ClearTerminal("nope")
	d.StartExecution("nope")
	d.EndExecution("nope", "done")
}

func TestTerminalState(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	d.Join("room", "c1")

	d.SetTerminal("room", "hello\n")
	snap := d.Join("room", "c1")
	if snap.TerminalOutput != "hello\n" {
		t.Errorf("expected terminal output in snapshot, got %q", snap.TerminalOutput)
	}

	d.ClearTerminal("room")
	snap = d.Join("room", "c1")
	if snap.TerminalOutput != "" {
		t.Errorf("expected cleared terminal, got %q", snap.TerminalOutput)
	}
}

func TestMembersFiltersUnregisteredConnections(t *testing.T) {
	d, reg := newTestDirectory()
	reg.SetIdentity("c1", "u1", "alice")
	reg.SetIdentity("c2", "u2", "bob")
	d.Join("room", "c1")
	d.Join("room", "c2")

	reg.Unregister("c2")

	members := d.Members("room")
	if len(members) != 1 || members[0].Username != "alice" {
		t.Errorf("expected stale member filtered out, got %+v", members)
	}
}

func TestMembersKeepJoinOrder(t *testing.T) {
	d, reg := newTestDirectory()
	conns := []string{"c1", "c2", "c3", "c4"}
	for i, c := range conns {
		reg.SetIdentity(c, c, "user"+string(rune('a'+i)))
		d.Join("room", c)
	}

	// Re-joining must not move a member to the back of the list.
	d.Join("room", "c1")

	for i := 0; i < 10; i++ {
		ids := d.MemberIDs("room")
		if len(ids) != len(conns) {
			t.Fatalf("expected %d members, got %v", len(conns), ids)
		}
		for j, c := range conns {
			if ids[j] != c {
				t.Fatalf("expected join order %v, got %v", conns, ids)
			}
		}
	}

	d.Leave("room", "c2")
	want := []string{"c1", "c3", "c4"}
	members := d.Members("room")
	if len(members) != len(want) {
		t.Fatalf("expected %d members after leave, got %+v", len(want), members)
	}
	for i, c := range want {
		if members[i].UserID != c {
			t.Fatalf("expected order %v after leave, got %+v", want, members)
		}
	}
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	d, _ := newTestDirectory()
	if got := d.Members("nope"); len(got) != 0 {
		t.Errorf("expected empty member list, got %+v", got)
	}
}

func TestRemoveConnectionEverywhere(t *testing.T) {
	d, reg := newTestDirectory()
	reg.Register("c1")
	reg.Register("c2")
	d.Join("r1", "c1")
	d.Join("r1", "c2")
	d.Join("r2", "c1")

	affected := d.RemoveConnectionEverywhere("c1")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected rooms, got %v", affected)
	}
	if d.Count() != 1 {
		t.Errorf("expected only r1 to survive, got %d rooms", d.Count())
	}
	if ids := d.MemberIDs("r1"); len(ids) != 1 || ids[0] != "c2" {
		t.Errorf("unexpected survivors in r1: %v", ids)
	}

	// Second pass for the same connection is a no-op.
	if affected := d.RemoveConnectionEverywhere("c1"); len(affected) != 0 {
		t.Errorf("expected no affected rooms on repeat cleanup, got %v", affected)
	}
}

func TestInfo(t *testing.T) {
	d, reg := newTestDirectory()
	reg.SetIdentity("c1", "u1", "alice")
	d.Join("room", "c1")
	d.InitializeIfEmpty("room", "x = 1", "python", "main.py")

	info, ok := d.Info("room")
	if !ok {
		t.Fatal("expected room info")
	}
	if info.RoomID != "room" || info.Language != "python" || info.FileName != "main.py" {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(info.Users) != 1 {
		t.Errorf("expected 1 user, got %+v", info.Users)
	}
	if info.CreatedAt == "" {
		t.Error("expected createdAt to be set")
	}

	if _, ok := d.Info("nope"); ok {
		t.Error("expected no info for unknown room")
	}
}
