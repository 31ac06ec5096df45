package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTempConfig(t, "max_players: 5\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPlayers != 5 {
		t.Errorf("MaxPlayers = %d, want 5", cfg.MaxPlayers)
	}
	if cfg.ReliableAddress != Default().ReliableAddress {
		t.Errorf("ReliableAddress = %q, want default %q", cfg.ReliableAddress, Default().ReliableAddress)
	}
	if cfg.Streaming.ViewDistance != Default().Streaming.ViewDistance {
		t.Errorf("ViewDistance = %d, want default", cfg.Streaming.ViewDistance)
	}
}

func TestLoadOverridesNestedFields(t *testing.T) {
	path := writeTempConfig(t, `
world:
  seed: 42
  region_dir: /tmp/myworld
streaming:
  view_distance: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.World.Seed)
	}
	if cfg.World.RegionDir != "/tmp/myworld" {
		t.Errorf("RegionDir = %q, want /tmp/myworld", cfg.World.RegionDir)
	}
	if cfg.Streaming.ViewDistance != 10 {
		t.Errorf("ViewDistance = %d, want 10", cfg.Streaming.ViewDistance)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}

func TestValidateRejectsNegativeMaxPlayers(t *testing.T) {
	cfg := Default()
	cfg.MaxPlayers = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for negative max_players")
	}
}

func TestValidateRejectsZeroViewDistance(t *testing.T) {
	cfg := Default()
	cfg.Streaming.ViewDistance = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for zero view distance")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}
