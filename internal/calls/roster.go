package calls

import "sync"

// Roster tracks which connections take part in each room's video call.
// Call participation is deliberately independent of room membership: a
// member can sit in the text session without camera or mic active.
type Roster struct {
	mu    sync.RWMutex
	calls map[string]map[string]struct{}
}

func NewRoster() *Roster {
	return &Roster{calls: make(map[string]map[string]struct{})}
}

// JoinCall adds the connection to the room's call and returns the
// connections that were already in it, so the joiner can dial each peer.
func (ro *Roster) JoinCall(roomID, connID string) []string {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	call, ok := ro.calls[roomID]
	if !ok {
		call = make(map[string]struct{})
		ro.calls[roomID] = call
	}
	existing := make([]string, 0, len(call))
	for id := range call {
		if id != connID {
			existing = append(existing, id)
		}
	}
	call[connID] = struct{}{}
	return existing
}

// LeaveCall removes the connection, deleting the call entry when it becomes
// empty. Returns false when the connection was not in the call.
func (ro *Roster) LeaveCall(roomID, connID string) bool {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	return ro.leaveLocked(roomID, connID)
}

func (ro *Roster) leaveLocked(roomID, connID string) bool {
	call, ok := ro.calls[roomID]
	if !ok {
		return false
	}
	if _, in := call[connID]; !in {
		return false
	}
	delete(call, connID)
	if len(call) == 0 {
		delete(ro.calls, roomID)
	}
	return true
}

// RemoveConnectionEverywhere drops the connection from every call it is in
// and returns the affected room ids.
func (ro *Roster) RemoveConnectionEverywhere(connID string) []string {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	var affected []string
	for roomID, call := range ro.calls {
		if _, in := call[connID]; in {
			affected = append(affected, roomID)
		}
	}
	for _, roomID := range affected {
		ro.leaveLocked(roomID, connID)
	}
	return affected
}

// Participants returns the connection ids in a room's call.
func (ro *Roster) Participants(roomID string) []string {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	call, ok := ro.calls[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(call))
	for id := range call {
		ids = append(ids, id)
	}
	return ids
}

// ParticipantCount is the total number of participants across all calls.
func (ro *Roster) ParticipantCount() int {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	n := 0
	for _, call := range ro.calls {
		n += len(call)
	}
	return n
}
