package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero map width", func(c *Config) { c.Map.Width = 0 }},
		{"negative map height", func(c *Config) { c.Map.Height = -1 }},
		{"zero tile size", func(c *Config) { c.Map.TileSize = 0 }},
		{"zero tick rate", func(c *Config) { c.Network.TickRate = 0 }},
		{"zero energy max", func(c *Config) { c.Energy.Max = 0 }},
		{"hunger threshold at 1", func(c *Config) { c.Energy.HungerThreshold = 1 }},
		{"cap below reserve", func(c *Config) { c.Soul.PopulationCap = 2; c.Soul.MinRestingReserve = 5 }},
		{"zero initial population", func(c *Config) { c.Soul.InitialPopulation = 0 }},
		{"zero spell range", func(c *Config) { c.Spell.Range = 0 }},
		{"zero cycle length", func(c *Config) { c.DayNight.CycleLength = 0 }},
		{"rest roll above 1", func(c *Config) { c.Behavior.RestRollChance = 1.5 }},
		{"negative social roll", func(c *Config) { c.Behavior.SocialRollChance = -0.1 }},
		{"zero sleep duration", func(c *Config) { c.Behavior.SleepDuration = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	body := `
[server]
name = "Testrift"

[network]
tick_rate = "50ms"

[map]
width = 24
height = 16
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Name != "Testrift" {
		t.Errorf("server name = %q", cfg.Server.Name)
	}
	if cfg.Network.TickRate != 50*time.Millisecond {
		t.Errorf("tick rate = %v, want 50ms", cfg.Network.TickRate)
	}
	if cfg.Map.Width != 24 || cfg.Map.Height != 16 {
		t.Errorf("map = %dx%d", cfg.Map.Width, cfg.Map.Height)
	}
	// Untouched keys keep their defaults.
	if cfg.Soul.PopulationCap != 40 {
		t.Errorf("population cap = %d, want default 40", cfg.Soul.PopulationCap)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("start time not stamped at load")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[map]\nwidth = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid config loaded without error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("missing file loaded without error")
	}
}
