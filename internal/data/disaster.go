package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DisasterTemplate holds static data for one disaster type loaded from YAML.
type DisasterTemplate struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Weight       int     `yaml:"weight"`        // selection weight when a roll succeeds
	DurationSec  int     `yaml:"duration_sec"`  // how long the hazard runs
	KillFraction float64 `yaml:"kill_fraction"` // share of total population killed over the duration
	SpeedMult    float64 `yaml:"speed_mult"`    // movement modifier while active (1.0 = none)
	CastTimeMult float64 `yaml:"cast_time_mult"`
	EnergyMult   float64 `yaml:"energy_mult"`
}

type disasterListFile struct {
	Disasters []DisasterTemplate `yaml:"disasters"`
}

// DisasterTable holds all disaster templates indexed by ID.
type DisasterTable struct {
	templates map[string]*DisasterTemplate
	order     []string // load order, for deterministic weighted picks
}

// LoadDisasterTable loads disaster templates from a YAML file.
func LoadDisasterTable(path string) (*DisasterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read disaster_list: %w", err)
	}
	var f disasterListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse disaster_list: %w", err)
	}
	t := &DisasterTable{templates: make(map[string]*DisasterTemplate, len(f.Disasters))}
	for i := range f.Disasters {
		d := &f.Disasters[i]
		if d.ID == "" {
			return nil, fmt.Errorf("disaster entry %d missing id", i)
		}
		if d.Weight <= 0 {
			d.Weight = 1
		}
		if d.SpeedMult == 0 {
			d.SpeedMult = 1
		}
		if d.CastTimeMult == 0 {
			d.CastTimeMult = 1
		}
		if d.EnergyMult == 0 {
			d.EnergyMult = 1
		}
		t.templates[d.ID] = d
		t.order = append(t.order, d.ID)
	}
	return t, nil
}

func (t *DisasterTable) Get(id string) *DisasterTemplate {
	return t.templates[id]
}

func (t *DisasterTable) Count() int {
	return len(t.templates)
}

// Pick selects a template by weight given a roll in [0, TotalWeight).
// Iteration follows load order so the same roll always gives the same
// disaster.
func (t *DisasterTable) Pick(roll int) *DisasterTemplate {
	for _, id := range t.order {
		d := t.templates[id]
		if roll < d.Weight {
			return d
		}
		roll -= d.Weight
	}
	return nil
}

// TotalWeight sums all selection weights.
func (t *DisasterTable) TotalWeight() int {
	sum := 0
	for _, id := range t.order {
		sum += t.templates[id].Weight
	}
	return sum
}
