package utils

import (
	"strings"

	"github.com/pion/webrtc/v3"

	"github.com/ujjwalshri/CodeColab/internal/config"
)

// GetWebRTCConfig builds the ICE server configuration handed to browsers.
// Defaults match the public Google STUN pool; TURN is added only when
// configured.
func GetWebRTCConfig(cfg config.Config) webrtc.Configuration {
	stunServers := []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
		"stun:stun2.l.google.com:19302",
		"stun:stun3.l.google.com:19302",
		"stun:stun4.l.google.com:19302",
	}
	if cfg.StunServers != "" {
		stunServers = strings.Split(cfg.StunServers, ",")
	}

	var iceServers []webrtc.ICEServer
	for _, stun := range stunServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs: []string{strings.TrimSpace(stun)},
		})
	}

	if cfg.TurnURL != "" {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       []string{cfg.TurnURL},
			Username:   cfg.TurnUsername,
			Credential: cfg.TurnPassword,
		})
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
	}
}
