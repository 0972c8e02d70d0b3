package rooms

import (
	"sync"
	"time"

	"github.com/ujjwalshri/CodeColab/internal/models"
	"github.com/ujjwalshri/CodeColab/internal/registry"
)

// room holds the shared session state for one room id. A room exists in the
// directory if and only if it has at least one member.
type room struct {
	id      string
	members map[string]struct{}
	// order keeps members in join order so member lists come out stable
	// instead of varying with map iteration.
	order          []string
	code           string
	language       string
	fileName       string
	terminalOutput string
	isExecuting    bool
	lastOutput     string
	createdAt      time.Time
}

// Snapshot is what a joining connection receives: the current document and
// terminal state plus the resolved member list.
type Snapshot struct {
	Code           string
	Language       string
	FileName       string
	TerminalOutput string
	Users          []models.MemberInfo
}

// Directory owns all active rooms. Member identities are resolved through
// the connection registry at read time, never cached.
type Directory struct {
	mu    sync.RWMutex
	reg   *registry.Registry
	rooms map[string]*room
}

func NewDirectory(reg *registry.Registry) *Directory {
	return &Directory{reg: reg, rooms: make(map[string]*room)}
}

// Join adds the connection to the room, creating the room lazily, and
// returns the current state. Joining twice is harmless.
func (d *Directory) Join(roomID, connID string) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomID]
	if !ok {
		r = &room{
			id:        roomID,
			members:   make(map[string]struct{}),
			createdAt: time.Now(),
		}
		d.rooms[roomID] = r
	}
	if _, member := r.members[connID]; !member {
		r.members[connID] = struct{}{}
		r.order = append(r.order, connID)
	}

	return Snapshot{
		Code:           r.code,
		Language:       r.language,
		FileName:       r.fileName,
		TerminalOutput: r.terminalOutput,
		Users:          d.resolveMembersLocked(r),
	}
}

// Leave removes the connection from the room and deletes the room when it
// becomes empty. Returns false when the room or membership did not exist.
func (d *Directory) Leave(roomID, connID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leaveLocked(roomID, connID)
}

func (d *Directory) leaveLocked(roomID, connID string) bool {
	r, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	if _, member := r.members[connID]; !member {
		return false
	}
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		delete(d.rooms, roomID)
	}
	return true
}

// InitializeIfEmpty sets the document only when no earlier member has
// established it yet. Guards a late joiner against clobbering live state.
func (d *Directory) InitializeIfEmpty(roomID, code, language, fileName string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	if r.code != "" && r.language != "" {
		return false
	}
	r.code = code
	r.language = language
	r.fileName = fileName
	return true
}

// UpdateCode overwrites the shared document. Last writer wins.
func (d *Directory) UpdateCode(roomID, code, language string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[roomID]; ok {
		r.code = code
		r.language = language
	}
}

func (d *Directory) SetTerminal(roomID, output string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[roomID]; ok {
		r.terminalOutput = output
	}
}

func (d *Directory) ClearTerminal(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[roomID]; ok {
		r.terminalOutput = ""
	}
}

func (d *Directory) StartExecution(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[roomID]; ok {
		r.isExecuting = true
	}
}

func (d *Directory) EndExecution(roomID, output string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rooms[roomID]; ok {
		r.isExecuting = false
		r.lastOutput = output
	}
}

// ExecutionState reports the transient execution flags for a room.
func (d *Directory) ExecutionState(roomID string) (executing bool, lastOutput string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r, ok := d.rooms[roomID]; ok {
		return r.isExecuting, r.lastOutput
	}
	return false, ""
}

// Members resolves the identity of every member through the registry, in
// join order. Members whose connection is no longer registered are
// filtered out.
func (d *Directory) Members(roomID string) []models.MemberInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return []models.MemberInfo{}
	}
	return d.resolveMembersLocked(r)
}

func (d *Directory) resolveMembersLocked(r *room) []models.MemberInfo {
	users := make([]models.MemberInfo, 0, len(r.order))
	for _, connID := range r.order {
		id, ok := d.reg.Lookup(connID)
		if !ok {
			continue
		}
		users = append(users, models.MemberInfo{UserID: id.UserID, Username: id.Username})
	}
	return users
}

// MemberIDs returns the connection ids currently in the room, in join order.
func (d *Directory) MemberIDs(roomID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	return append([]string(nil), r.order...)
}

// RemoveConnectionEverywhere leaves every room the connection is a member
// of and returns the affected room ids. Used on disconnect.
func (d *Directory) RemoveConnectionEverywhere(connID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var affected []string
	for roomID, r := range d.rooms {
		if _, member := r.members[connID]; member {
			affected = append(affected, roomID)
		}
	}
	for _, roomID := range affected {
		d.leaveLocked(roomID, connID)
	}
	return affected
}

// Info returns a REST-facing snapshot of a room.
func (d *Directory) Info(roomID string) (models.RoomInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return models.RoomInfo{}, false
	}
	return models.RoomInfo{
		RoomID:    r.id,
		Users:     d.resolveMembersLocked(r),
		Language:  r.language,
		FileName:  r.fileName,
		CreatedAt: r.createdAt.UTC().Format(time.RFC3339),
	}, true
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
