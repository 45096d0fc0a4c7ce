package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backfill.MaxCount != 100 || cfg.Backfill.DelaySeconds != 5 || cfg.Backfill.RequestsPerMinute != 10 {
		t.Errorf("unexpected defaults: %+v", cfg.Backfill)
	}
	if cfg.Backfill.Delay() != 5*time.Second {
		t.Errorf("unexpected delay: %v", cfg.Backfill.Delay())
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should default to a path under the home directory")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.APIKey = "abc123"
	cfg.FactionID = "777"
	cfg.Backfill.MaxCount = 250
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.APIKey != "abc123" || got.FactionID != "777" || got.Backfill.MaxCount != 250 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.APIKey = "from-file"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("OCWATCH_API_KEY", "from-env")
	t.Setenv("OCWATCH_FACTION_ID", "999")
	t.Setenv("OCWATCH_MAX_COUNT", "42")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.APIKey != "from-env" || got.FactionID != "999" || got.Backfill.MaxCount != 42 {
		t.Errorf("environment did not win: %+v", got)
	}
}

func TestTornAPIKeyFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TORN_API_KEY", "torn-key")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.APIKey != "torn-key" {
		t.Errorf("TORN_API_KEY fallback not applied: %q", got.APIKey)
	}
}
