package hub

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ujjwalshri/CodeColab/internal/calls"
	"github.com/ujjwalshri/CodeColab/internal/metrics"
	"github.com/ujjwalshri/CodeColab/internal/models"
	"github.com/ujjwalshri/CodeColab/internal/presence"
	"github.com/ujjwalshri/CodeColab/internal/registry"
	"github.com/ujjwalshri/CodeColab/internal/rooms"
)

type inboundEvent struct {
	client *Client
	frame  models.Frame
}

// Hub is the event router. All inbound frames from every connection funnel
// through a single Run loop and are processed one at a time to completion,
// so each handler's read-modify-write on the stores is atomic with respect
// to every other event.
type Hub struct {
	log    *zap.Logger
	reg    *registry.Registry
	dir    *rooms.Directory
	roster *calls.Roster
	pub    presence.Publisher

	// clients maps connection id to its live transport handle. Only the
	// Run goroutine touches it.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	ctx context.Context
}

func New(log *zap.Logger, reg *registry.Registry, dir *rooms.Directory, roster *calls.Roster, pub presence.Publisher) *Hub {
	if pub == nil {
		pub = presence.NopPublisher{}
	}
	return &Hub{
		log:        log,
		reg:        reg,
		dir:        dir,
		roster:     roster,
		pub:        pub,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, 64),
		ctx:        context.Background(),
	}
}

// Run processes registration, disconnection and inbound events until the
// context is cancelled. It must run in exactly one goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.handleConnect(c)

		case c := <-h.unregister:
			h.handleDisconnect(c)

		case ev := <-h.inbound:
			h.handleFrame(ev.client, ev.frame)
		}
	}
}

// Serve attaches an upgraded WebSocket connection to the hub and blocks
// until the connection closes.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := newClient(h, conn)
	h.register <- c
	go c.writePump()
	c.readPump()
}

func (h *Hub) handleConnect(c *Client) {
	h.reg.Register(c.ID)
	h.clients[c.ID] = c
	metrics.ActiveConnections.Set(float64(len(h.clients)))
	h.log.Info("user connected", zap.String("connId", c.ID))
}

// handleDisconnect is the single cleanup path for a closing connection: the
// connection is removed from every call roster, every room and the registry,
// and remaining members are notified. Safe to hit twice for the same client.
func (h *Hub) handleDisconnect(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	identity, _ := h.reg.Lookup(c.ID)

	for _, roomID := range h.roster.RemoveConnectionEverywhere(c.ID) {
		h.broadcastToRoom(roomID, c.ID, models.NewFrame(models.EvUserLeftCall, models.CallUserEvent{
			User: models.CallUser{UserID: c.ID, Username: identity.Username},
		}))
		h.publish(presence.Event{Type: "call-left", RoomID: roomID, ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	}

	for _, roomID := range h.dir.RemoveConnectionEverywhere(c.ID) {
		h.notifyRoomLeft(roomID, identity)
		h.publish(presence.Event{Type: "room-left", RoomID: roomID, ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	}

	h.reg.Unregister(c.ID)
	delete(h.clients, c.ID)
	close(c.send)

	h.publish(presence.Event{Type: "disconnected", ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	h.updateGauges()
	h.log.Info("user disconnected", zap.String("connId", c.ID))
}

func (h *Hub) handleFrame(c *Client, frame models.Frame) {
	// A frame can still sit in the inbound queue after its connection's
	// unregister has been processed; the select in Run does not order the
	// two. Dispatching it would reply on a closed send channel and re-add
	// the dead connection to stores, so late frames are dropped here.
	if _, ok := h.clients[c.ID]; !ok {
		return
	}

	metrics.MessagesReceived.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case models.EvUserJoin:
		h.onUserJoin(c, frame.Data)
	case models.EvRoomJoin:
		h.onRoomJoin(c, frame.Data)
	case models.EvRoomGetUsers:
		h.onRoomGetUsers(c, frame.Data)
	case models.EvRoomSetState:
		h.onRoomSetState(c, frame.Data)
	case models.EvRoomLeave:
		h.onRoomLeave(c, frame.Data)
	case models.EvCodeChange:
		h.onCodeChange(c, frame.Data)
	case models.EvCodeExecStart:
		h.onExecutionStart(c, frame.Data)
	case models.EvCodeExecEnd:
		h.onExecutionEnd(c, frame.Data)
	case models.EvCodeExecResult:
		h.onExecutionResult(c, frame.Data)
	case models.EvCodeCursor:
		h.onCursor(c, frame.Data)
	case models.EvTerminalOutput:
		h.onTerminalOutput(c, frame.Data)
	case models.EvTerminalClear:
		h.onTerminalClear(c, frame.Data)
	case models.EvSignal:
		h.onSignal(c, frame.Data)
	case models.EvJoinCall:
		h.onJoinCall(c, frame.Data)
	case models.EvLeaveCall:
		h.onLeaveCall(c, frame.Data)
	default:
		h.log.Warn("unknown event type", zap.String("type", frame.Type), zap.String("connId", c.ID))
	}
}

func (h *Hub) onUserJoin(c *Client, data json.RawMessage) {
	var req models.UserJoinRequest
	if !h.decode(c, models.EvUserJoin, data, &req) {
		return
	}
	h.reg.SetIdentity(c.ID, req.UserID, req.Username)
	c.Send(models.NewFrame(models.EvUserJoined, models.UserJoined{Success: true}))
}

func (h *Hub) onRoomJoin(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvRoomJoin, data, &req) || req.RoomID == "" {
		return
	}
	snap := h.dir.Join(req.RoomID, c.ID)

	c.Send(models.NewFrame(models.EvRoomState, models.RoomState{
		Code:           snap.Code,
		Language:       snap.Language,
		FileName:       snap.FileName,
		TerminalOutput: snap.TerminalOutput,
		Users:          snap.Users,
	}))

	identity, _ := h.reg.Lookup(c.ID)
	// The joined notice and the refreshed member list go to every member,
	// the joiner included.
	h.broadcastToRoom(req.RoomID, "", models.NewFrame(models.EvRoomUserJoined, models.MemberInfo{
		UserID:   identity.UserID,
		Username: identity.Username,
	}))
	h.broadcastRoomUsers(req.RoomID)

	h.publish(presence.Event{Type: "room-joined", RoomID: req.RoomID, ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	h.updateGauges()
	h.log.Info("room joined", zap.String("roomId", req.RoomID), zap.String("connId", c.ID))
}

func (h *Hub) onRoomGetUsers(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvRoomGetUsers, data, &req) {
		return
	}
	c.Send(models.NewFrame(models.EvRoomUsers, models.RoomUsers{Users: h.dir.Members(req.RoomID)}))
}

func (h *Hub) onRoomSetState(c *Client, data json.RawMessage) {
	var req models.RoomSetState
	if !h.decode(c, models.EvRoomSetState, data, &req) {
		return
	}
	// Initialize-once: silently ignored when an earlier member already
	// established the document.
	h.dir.InitializeIfEmpty(req.RoomID, req.Code, req.Language, req.FileName)
}

func (h *Hub) onRoomLeave(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvRoomLeave, data, &req) {
		return
	}
	h.leaveRoom(c, req.RoomID)
}

func (h *Hub) leaveRoom(c *Client, roomID string) {
	identity, _ := h.reg.Lookup(c.ID)
	if !h.dir.Leave(roomID, c.ID) {
		return
	}
	h.notifyRoomLeft(roomID, identity)
	h.publish(presence.Event{Type: "room-left", RoomID: roomID, ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	h.updateGauges()
}

func (h *Hub) notifyRoomLeft(roomID string, identity models.Identity) {
	h.broadcastToRoom(roomID, "", models.NewFrame(models.EvRoomUserLeft, models.MemberInfo{
		UserID:   identity.UserID,
		Username: identity.Username,
	}))
	h.broadcastRoomUsers(roomID)
}

func (h *Hub) onCodeChange(c *Client, data json.RawMessage) {
	var req models.CodeChange
	if !h.decode(c, models.EvCodeChange, data, &req) {
		return
	}
	h.dir.UpdateCode(req.RoomID, req.Code, req.Language)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvCodeUpdate, models.CodeUpdate{
		Code:     req.Code,
		Language: req.Language,
	}))
}

func (h *Hub) onExecutionStart(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvCodeExecStart, data, &req) {
		return
	}
	h.dir.StartExecution(req.RoomID)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvCodeExecStart, nil))
}

func (h *Hub) onExecutionEnd(c *Client, data json.RawMessage) {
	var req models.ExecutionEnd
	if !h.decode(c, models.EvCodeExecEnd, data, &req) {
		return
	}
	h.dir.EndExecution(req.RoomID, req.Output)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvCodeExecEnd, models.ExecutionEndUpdate{
		Success: req.Success,
		Output:  req.Output,
	}))
}

func (h *Hub) onExecutionResult(c *Client, data json.RawMessage) {
	var req models.ExecutionResult
	if !h.decode(c, models.EvCodeExecResult, data, &req) {
		return
	}
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvCodeExecUpdate, models.ExecutionUpdate{Result: req.Result}))
}

func (h *Hub) onCursor(c *Client, data json.RawMessage) {
	var req models.CursorMove
	if !h.decode(c, models.EvCodeCursor, data, &req) {
		return
	}
	// Cursor positions are relayed, never stored.
	identity, _ := h.reg.Lookup(c.ID)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvCodeCursorUpdate, models.CursorUpdate{
		UserID:   identity.UserID,
		Username: identity.Username,
		Position: req.Position,
	}))
}

func (h *Hub) onTerminalOutput(c *Client, data json.RawMessage) {
	var req models.TerminalOutput
	if !h.decode(c, models.EvTerminalOutput, data, &req) {
		return
	}
	h.dir.SetTerminal(req.RoomID, req.Output)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvTerminalUpdate, models.TerminalUpdate{Output: req.Output}))
}

func (h *Hub) onTerminalClear(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvTerminalClear, data, &req) {
		return
	}
	h.dir.ClearTerminal(req.RoomID)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvTerminalClear, nil))
}

// onSignal relays an opaque handshake payload to one named connection.
// Unknown targets are dropped; the sending peer's connection attempt times
// out through the normal ICE state machine.
func (h *Hub) onSignal(c *Client, data json.RawMessage) {
	var req models.Signal
	if !h.decode(c, models.EvSignal, data, &req) || req.TargetUserID == "" {
		return
	}
	target, ok := h.clients[req.TargetUserID]
	if !ok {
		h.log.Debug("signal target not connected",
			zap.String("target", req.TargetUserID), zap.String("connId", c.ID))
		return
	}
	target.Send(models.NewFrame(models.EvSignal, models.SignalForward{
		Signal: req.Signal,
		From:   req.From,
	}))
}

func (h *Hub) onJoinCall(c *Client, data json.RawMessage) {
	var req models.JoinCall
	if !h.decode(c, models.EvJoinCall, data, &req) || req.RoomID == "" {
		return
	}
	existing := h.roster.JoinCall(req.RoomID, c.ID)

	username := req.User.Username
	identity, ok := h.reg.Lookup(c.ID)
	if ok && identity.Username != "" {
		username = identity.Username
	}

	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvUserJoinedCall, models.CallUserEvent{
		User: models.CallUser{UserID: c.ID, Username: username},
	}))

	inCall := make([]models.CallUser, 0, len(existing))
	for _, connID := range existing {
		peer, _ := h.reg.Lookup(connID)
		inCall = append(inCall, models.CallUser{UserID: connID, Username: peer.Username})
	}
	c.Send(models.NewFrame(models.EvAllUsersInCall, models.UsersInCall{Users: inCall}))

	h.publish(presence.Event{Type: "call-joined", RoomID: req.RoomID, ConnectionID: c.ID, UserID: identity.UserID, Username: username})
	h.updateGauges()
}

func (h *Hub) onLeaveCall(c *Client, data json.RawMessage) {
	var req models.RoomRequest
	if !h.decode(c, models.EvLeaveCall, data, &req) {
		return
	}
	if !h.roster.LeaveCall(req.RoomID, c.ID) {
		return
	}
	identity, _ := h.reg.Lookup(c.ID)
	h.broadcastToRoom(req.RoomID, c.ID, models.NewFrame(models.EvUserLeftCall, models.CallUserEvent{
		User: models.CallUser{UserID: c.ID, Username: identity.Username},
	}))
	h.publish(presence.Event{Type: "call-left", RoomID: req.RoomID, ConnectionID: c.ID, UserID: identity.UserID, Username: identity.Username})
	h.updateGauges()
}

// broadcastToRoom sends a frame to every member of a room, skipping the
// connection named by except when non-empty.
func (h *Hub) broadcastToRoom(roomID, except string, frame models.Frame) {
	for _, connID := range h.dir.MemberIDs(roomID) {
		if connID == except {
			continue
		}
		if c, ok := h.clients[connID]; ok {
			c.Send(frame)
		}
	}
}

func (h *Hub) broadcastRoomUsers(roomID string) {
	h.broadcastToRoom(roomID, "", models.NewFrame(models.EvRoomUsers, models.RoomUsers{Users: h.dir.Members(roomID)}))
}

func (h *Hub) decode(c *Client, event string, data json.RawMessage, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		h.log.Warn("malformed payload",
			zap.String("type", event), zap.String("connId", c.ID), zap.Error(err))
		return false
	}
	return true
}

func (h *Hub) publish(ev presence.Event) {
	if err := h.pub.Publish(h.ctx, ev); err != nil {
		h.log.Warn("presence publish failed", zap.Error(err))
	}
}

func (h *Hub) updateGauges() {
	metrics.ActiveConnections.Set(float64(len(h.clients)))
	metrics.ActiveRooms.Set(float64(h.dir.Count()))
	metrics.CallParticipants.Set(float64(h.roster.ParticipantCount()))
}
