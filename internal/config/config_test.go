package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("OPENAI_CHAT_MODEL", "")
	os.Setenv("DEEPGRAM_STT_MODEL", "")
	os.Setenv("TTS_PROVIDER", "")
	os.Setenv("SESSION_TTL_HOURS", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.ChatModelID == "" {
		t.Fatalf("expected default chat model id")
	}
	if cfg.DeepgramSTTModel == "" {
		t.Fatalf("expected default stt model")
	}
	if cfg.TTSProvider != "openai" {
		t.Fatalf("expected default tts provider, got %q", cfg.TTSProvider)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default 24h session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.SupabaseTable != "leads" {
		t.Fatalf("expected default leads table, got %q", cfg.SupabaseTable)
	}
}

func TestLoad_SessionTTLOverride(t *testing.T) {
	os.Setenv("SESSION_TTL_HOURS", "2")
	defer os.Unsetenv("SESSION_TTL_HOURS")
	if cfg := Load(); cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", cfg.SessionTTL)
	}

	os.Setenv("SESSION_TTL_HOURS", "garbage")
	if cfg := Load(); cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("invalid ttl must fall back to default, got %v", cfg.SessionTTL)
	}
}
