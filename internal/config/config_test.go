package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8090" {
		t.Fatalf("BindAddr = %q, want :8090", cfg.BindAddr)
	}
	if cfg.KeepAliveInterval != 30*time.Second {
		t.Fatalf("KeepAliveInterval = %v, want 30s", cfg.KeepAliveInterval)
	}
	if cfg.SessionMaxAge != 9*time.Minute {
		t.Fatalf("SessionMaxAge = %v, want 9m", cfg.SessionMaxAge)
	}
	if cfg.ICEGatherTimeout != 15*time.Second {
		t.Fatalf("ICEGatherTimeout = %v, want 15s", cfg.ICEGatherTimeout)
	}
}

func TestLoadRejectsBadTransportMode(t *testing.T) {
	t.Setenv("AVATAR_TRANSPORT_MODE", "smoke-signals")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unknown transport mode")
	}
}

func TestLoadRejectsShortKeepAlive(t *testing.T) {
	t.Setenv("AVATAR_KEEPALIVE_INTERVAL", "1s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject keep-alive below 5s")
	}
}

func TestLoadRejectsMaxAgeUnderKeepAlive(t *testing.T) {
	t.Setenv("AVATAR_SESSION_MAX_AGE", "10s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject max age under keep-alive interval")
	}
}

func TestLoadDurationOverride(t *testing.T) {
	t.Setenv("AVATAR_SESSION_MAX_AGE", "5m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SessionMaxAge != 5*time.Minute {
		t.Fatalf("SessionMaxAge = %v, want 5m", cfg.SessionMaxAge)
	}
}
