package mentord

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mentord", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "gayoon.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("GAYOON_HTTP_ADDR", ":9999")
	t.Setenv("GAYOON_DB_PATH", "/tmp/mentor.db")
	t.Setenv("GAYOON_GEMINI_API_KEY", "test-key")

	fs := flag.NewFlagSet("mentord", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.DBPath != "/tmp/mentor.db" || cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("GAYOON_HTTP_ADDR", ":9999")

	fs := flag.NewFlagSet("mentord", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", ":7777"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":7777" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr)
	}
}
