package config

import "os"

// Config is read from environment variables, one deployment knob per field.
type Config struct {
	Port      string
	ClientURL string
	RedisAddr string

	StunServers  string
	TurnURL      string
	TurnUsername string
	TurnPassword string
}

func Load() Config {
	return Config{
		Port:         getenv("PORT", "3000"),
		ClientURL:    getenv("CLIENT_URL", "http://localhost:5173"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		StunServers:  os.Getenv("STUN_SERVERS"),
		TurnURL:      os.Getenv("TURN_URL"),
		TurnUsername: os.Getenv("TURN_USERNAME"),
		TurnPassword: os.Getenv("TURN_PASSWORD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
