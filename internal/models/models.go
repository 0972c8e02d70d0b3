package models

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// Event names exchanged over the WebSocket. Inbound names match what the
// frontend emits; outbound names are what it subscribes to.
const (
	EvUserJoin       = "user:join"
	EvRoomJoin       = "room:join"
	EvRoomGetUsers   = "room:get-users"
	EvRoomSetState   = "room:set-state"
	EvRoomLeave      = "room:leave"
	EvCodeChange     = "code:change"
	EvCodeExecStart  = "code:execution-start"
	EvCodeExecEnd    = "code:execution-end"
	EvCodeExecResult = "code:execution-result"
	EvCodeCursor     = "code:cursor"
	EvTerminalOutput = "terminal:output"
	EvTerminalClear  = "terminal:clear"
	EvSignal         = "webrtc:signal"
	EvJoinCall       = "webrtc:join-call"
	EvLeaveCall      = "webrtc:leave-call"

	EvUserJoined       = "user:joined"
	EvRoomState        = "room:state"
	EvRoomUserJoined   = "room:user-joined"
	EvRoomUsers        = "room:users"
	EvRoomUserLeft     = "room:user-left"
	EvCodeUpdate       = "code:update"
	EvCodeExecUpdate   = "code:execution-update"
	EvCodeCursorUpdate = "code:cursor-update"
	EvTerminalUpdate   = "terminal:output-update"
	EvUserJoinedCall   = "webrtc:user-joined-call"
	EvAllUsersInCall   = "webrtc:all-users-in-call"
	EvUserLeftCall     = "webrtc:user-left-call"
)

// Frame is the envelope for every message in both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewFrame builds an outbound frame, marshalling the payload. A payload that
// fails to marshal is a programming error; the frame is sent without data so
// the failure stays visible instead of silently dropping the event.
func NewFrame(event string, data any) Frame {
	if data == nil {
		return Frame{Type: event}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Frame{Type: event}
	}
	return Frame{Type: event, Data: b}
}

// Identity is what a connection announced about itself.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// MemberInfo is an identity-resolved room member entry.
type MemberInfo struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// CallUser identifies a call participant. UserID here is the connection id,
// because that is what peers address their signals to.
type CallUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

/*** Inbound payloads ***/

type UserJoinRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type RoomSetState struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
	FileName string `json:"fileName"`
}

type CodeChange struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type ExecutionEnd struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

type ExecutionResult struct {
	RoomID string          `json:"roomId"`
	Result json.RawMessage `json:"result"`
}

type CursorMove struct {
	RoomID   string          `json:"roomId"`
	Position json.RawMessage `json:"position"`
}

type TerminalOutput struct {
	RoomID string `json:"roomId"`
	Output string `json:"output"`
}

// Signal carries an opaque WebRTC handshake payload. The hub never looks
// inside Signal or From; it only routes by TargetUserID.
type Signal struct {
	RoomID       string          `json:"roomId"`
	Signal       json.RawMessage `json:"signal"`
	TargetUserID string          `json:"targetUserId"`
	From         json.RawMessage `json:"from"`
}

type JoinCall struct {
	RoomID string   `json:"roomId"`
	User   CallUser `json:"user"`
}

/*** Outbound payloads ***/

type UserJoined struct {
	Success bool `json:"success"`
}

type RoomState struct {
	Code           string       `json:"code"`
	Language       string       `json:"language"`
	FileName       string       `json:"fileName"`
	TerminalOutput string       `json:"terminalOutput"`
	Users          []MemberInfo `json:"users"`
}

type RoomUsers struct {
	Users []MemberInfo `json:"users"`
}

type CodeUpdate struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type ExecutionEndUpdate struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

type ExecutionUpdate struct {
	Result json.RawMessage `json:"result"`
}

type CursorUpdate struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Position json.RawMessage `json:"position"`
}

type TerminalUpdate struct {
	Output string `json:"output"`
}

type SignalForward struct {
	Signal json.RawMessage `json:"signal"`
	From   json.RawMessage `json:"from"`
}

type CallUserEvent struct {
	User CallUser `json:"user"`
}

type UsersInCall struct {
	Users []CallUser `json:"users"`
}

// WebRTCConfig is the ICE server list served to browsers.
type WebRTCConfig struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// RoomInfo is the REST snapshot of a live room.
type RoomInfo struct {
	RoomID    string       `json:"roomId"`
	Users     []MemberInfo `json:"users"`
	Language  string       `json:"language"`
	FileName  string       `json:"fileName"`
	CreatedAt string       `json:"createdAt"`
}
