package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	ListenAddr string
	EventsAddr string

	AssemblyAIBaseURL string
	AssemblyAIKey     string

	PollInterval    time.Duration
	PollMaxAttempts int
	MaxWorkers      int

	SessionBackend string // "file" or "supabase"
	SessionFile    string

	WatchDir string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		EventsAddr:        getenv("EVENTS_ADDR", ":8081"),
		AssemblyAIBaseURL: getenv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com/v2"),
		AssemblyAIKey:     getenv("ASSEMBLYAI_API_KEY", ""),
		PollInterval:      time.Duration(getenvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		PollMaxAttempts:   getenvInt("POLL_MAX_ATTEMPTS", 60),
		MaxWorkers:        getenvInt("MAX_WORKERS", 4),
		SessionBackend:    getenv("SESSION_BACKEND", "file"),
		SessionFile:       getenv("SESSION_FILE", "data/sessions.json"),
		WatchDir:          getenv("WATCH_DIR", ""),
	}
}
