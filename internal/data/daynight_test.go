package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPhaseTableSortsAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daynight_list.yaml")
	body := `
phases:
  - name: night
    start: 0.6
    mods:
      - faction: 1
        speed_mult: 1.1
  - name: dawn
    start: 0.0
  - name: day
    start: 0.1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadPhaseTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Count() != 3 {
		t.Fatalf("count = %d, want 3", table.Count())
	}

	// Entries are sorted by start regardless of file order.
	if got := table.At(0.0).Name; got != "dawn" {
		t.Errorf("At(0.0) = %q, want dawn", got)
	}
	if got := table.At(0.3).Name; got != "day" {
		t.Errorf("At(0.3) = %q, want day", got)
	}
	if got := table.At(0.99).Name; got != "night" {
		t.Errorf("At(0.99) = %q, want night", got)
	}
	// Unset multipliers default to 1.
	night := table.At(0.7)
	if night.Mods[0].CastTimeMult != 1 || night.Mods[0].EnergyMult != 1 {
		t.Errorf("night mods not defaulted: %+v", night.Mods[0])
	}
}

func TestPhaseAtWraps(t *testing.T) {
	table := DefaultPhaseTable()
	if got := table.At(1.25).Name; got != "day" {
		t.Errorf("At(1.25) = %q, want day", got)
	}
	if got := table.At(0.5).Name; got != "night" {
		t.Errorf("At(0.5) = %q, want night", got)
	}
	if got := table.At(-0.1).Name; got != "day" {
		t.Errorf("At(-0.1) = %q, want day", got)
	}
}

func TestLoadPhaseTableRejectsBadStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daynight_list.yaml")
	if err := os.WriteFile(path, []byte("phases:\n  - name: bad\n    start: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPhaseTable(path); err == nil {
		t.Fatal("out-of-range start accepted")
	}

	if err := os.WriteFile(path, []byte("phases: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPhaseTable(path); err == nil {
		t.Fatal("empty phase list accepted")
	}
}
