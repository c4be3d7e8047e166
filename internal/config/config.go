package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the avatar gateway.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	BackendBaseURL string

	HeyGenAPIKey  string
	HeyGenBaseURL string

	DefaultAvatarID string
	DefaultVoiceID  string
	SessionQuality  string

	TransportMode string

	KeepAliveInterval     time.Duration
	SessionMaxAge         time.Duration
	CloseSettleDelay      time.Duration
	ICEGatherTimeout      time.Duration
	AttachRetryDelay      time.Duration
	SpeakingBackstop      time.Duration
	ParticipantPollBudget time.Duration

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8090"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "avatarlink"),
		AllowAnyOrigin:   false,
		BackendBaseURL:   envOrDefault("BACKEND_BASE_URL", "http://localhost:8000"),
		HeyGenAPIKey:     stringsTrimSpace("HEYGEN_API_KEY"),
		HeyGenBaseURL:    envOrDefault("HEYGEN_BASE_URL", "https://api.heygen.com"),
		DefaultAvatarID:  envOrDefault("AVATAR_DEFAULT_ID", "Wayne_20240711"),
		DefaultVoiceID:   envOrDefault("AVATAR_DEFAULT_VOICE_ID", "1bd001e7e50f421d891986aad5158bc8"),
		SessionQuality:   envOrDefault("AVATAR_SESSION_QUALITY", "medium"),
		TransportMode:    envOrDefault("AVATAR_TRANSPORT_MODE", "auto"),
		// Provider sessions are reclaimed when idle and hard-capped around ten
		// minutes; the keep-alive and renewal windows stay under both limits.
		KeepAliveInterval:     30 * time.Second,
		SessionMaxAge:         9 * time.Minute,
		CloseSettleDelay:      time.Second,
		ICEGatherTimeout:      15 * time.Second,
		AttachRetryDelay:      2 * time.Second,
		SpeakingBackstop:      60 * time.Second,
		ParticipantPollBudget: 2 * time.Minute,
		DatabaseURL:           stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:       15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.KeepAliveInterval, err = durationFromEnv("AVATAR_KEEPALIVE_INTERVAL", cfg.KeepAliveInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionMaxAge, err = durationFromEnv("AVATAR_SESSION_MAX_AGE", cfg.SessionMaxAge)
	if err != nil {
		return Config{}, err
	}
	cfg.CloseSettleDelay, err = durationFromEnv("AVATAR_CLOSE_SETTLE_DELAY", cfg.CloseSettleDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.ICEGatherTimeout, err = durationFromEnv("AVATAR_ICE_GATHER_TIMEOUT", cfg.ICEGatherTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AttachRetryDelay, err = durationFromEnv("AVATAR_ATTACH_RETRY_DELAY", cfg.AttachRetryDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeakingBackstop, err = durationFromEnv("AVATAR_SPEAKING_BACKSTOP", cfg.SpeakingBackstop)
	if err != nil {
		return Config{}, err
	}
	cfg.ParticipantPollBudget, err = durationFromEnv("AVATAR_PARTICIPANT_POLL_BUDGET", cfg.ParticipantPollBudget)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.TransportMode)) {
	case "auto", "livekit", "manual", "mock":
	default:
		return Config{}, fmt.Errorf("AVATAR_TRANSPORT_MODE must be one of auto|livekit|manual|mock")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.SessionQuality)) {
	case "low", "medium", "high":
	default:
		return Config{}, fmt.Errorf("AVATAR_SESSION_QUALITY must be one of low|medium|high")
	}
	if cfg.KeepAliveInterval < 5*time.Second {
		return Config{}, fmt.Errorf("AVATAR_KEEPALIVE_INTERVAL must be at least 5s")
	}
	if cfg.SessionMaxAge <= cfg.KeepAliveInterval {
		return Config{}, fmt.Errorf("AVATAR_SESSION_MAX_AGE must exceed the keep-alive interval")
	}
	if cfg.ICEGatherTimeout < time.Second {
		return Config{}, fmt.Errorf("AVATAR_ICE_GATHER_TIMEOUT must be at least 1s")
	}
	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		return Config{}, fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
