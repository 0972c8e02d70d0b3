package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ujjwalshri/CodeColab/internal/config"
	"github.com/ujjwalshri/CodeColab/internal/hub"
	"github.com/ujjwalshri/CodeColab/internal/models"
	"github.com/ujjwalshri/CodeColab/internal/rooms"
	"github.com/ujjwalshri/CodeColab/internal/utils"
)

type Handlers struct {
	log      *zap.Logger
	hub      *hub.Hub
	dir      *rooms.Directory
	upgrader websocket.Upgrader
	rtcCfg   models.WebRTCConfig
}

func New(log *zap.Logger, h *hub.Hub, dir *rooms.Directory, cfg config.Config) *Handlers {
	rtc := utils.GetWebRTCConfig(cfg)
	return &Handlers{
		log:      log,
		hub:      h,
		dir:      dir,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		rtcCfg:   models.WebRTCConfig{ICEServers: rtc.ICEServers},
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// CollabWS upgrades the request and hands the connection to the hub for the
// rest of its lifetime.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn)
}

// GetRoomInfo reports the live state of a room, 404 when it has no members.
func (h *Handlers) GetRoomInfo(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, "roomID is required", http.StatusBadRequest)
		return
	}
	info, ok := h.dir.Info(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

// GetWebRTCConfig serves the ICE server list browsers use to negotiate
// peer connections.
func (h *Handlers) GetWebRTCConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.rtcCfg)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
