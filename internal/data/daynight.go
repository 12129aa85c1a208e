package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// PhaseMod is one faction's modifier set during a day/night phase.
type PhaseMod struct {
	Faction      int     `yaml:"faction"`
	SpeedMult    float64 `yaml:"speed_mult"`
	CastTimeMult float64 `yaml:"cast_time_mult"`
	EnergyMult   float64 `yaml:"energy_mult"`
}

// PhaseTemplate describes one time-of-day phase. Start is a fraction of
// the full cycle in [0,1); a phase runs until the next phase's start.
type PhaseTemplate struct {
	Name  string     `yaml:"name"`
	Start float64    `yaml:"start"`
	Mods  []PhaseMod `yaml:"mods"`
}

type phaseListFile struct {
	Phases []PhaseTemplate `yaml:"phases"`
}

// PhaseTable holds the day/night phases sorted by start fraction.
type PhaseTable struct {
	phases []PhaseTemplate
}

// LoadPhaseTable loads the day/night phase table from a YAML file.
func LoadPhaseTable(path string) (*PhaseTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daynight_list: %w", err)
	}
	var f phaseListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse daynight_list: %w", err)
	}
	if len(f.Phases) == 0 {
		return nil, fmt.Errorf("daynight_list: no phases defined")
	}
	for i := range f.Phases {
		p := &f.Phases[i]
		if p.Start < 0 || p.Start >= 1 {
			return nil, fmt.Errorf("phase %q: start %v out of [0,1)", p.Name, p.Start)
		}
		for j := range p.Mods {
			m := &p.Mods[j]
			if m.SpeedMult == 0 {
				m.SpeedMult = 1
			}
			if m.CastTimeMult == 0 {
				m.CastTimeMult = 1
			}
			if m.EnergyMult == 0 {
				m.EnergyMult = 1
			}
		}
	}
	t := &PhaseTable{phases: f.Phases}
	sort.SliceStable(t.phases, func(i, j int) bool {
		return t.phases[i].Start < t.phases[j].Start
	})
	return t, nil
}

func (t *PhaseTable) Count() int { return len(t.phases) }

// At returns the phase active at the given cycle fraction in [0,1).
func (t *PhaseTable) At(frac float64) *PhaseTemplate {
	if frac < 0 {
		frac = 0
	}
	if frac >= 1 {
		frac -= float64(int(frac))
	}
	// Last phase whose start <= frac; wraps to the final phase before
	// the first start (a cycle beginning mid-night).
	cur := &t.phases[len(t.phases)-1]
	for i := range t.phases {
		if t.phases[i].Start <= frac {
			cur = &t.phases[i]
		}
	}
	return cur
}

// DefaultPhaseTable is the built-in fallback used when no YAML table is
// supplied (tests, minimal deployments): day favors faction 0, night
// favors faction 1.
func DefaultPhaseTable() *PhaseTable {
	return &PhaseTable{phases: []PhaseTemplate{
		{Name: "day", Start: 0, Mods: []PhaseMod{
			{Faction: 0, SpeedMult: 1.1, CastTimeMult: 0.9, EnergyMult: 1.2},
			{Faction: 1, SpeedMult: 0.95, CastTimeMult: 1.1, EnergyMult: 0.9},
		}},
		{Name: "night", Start: 0.5, Mods: []PhaseMod{
			{Faction: 0, SpeedMult: 0.95, CastTimeMult: 1.1, EnergyMult: 0.9},
			{Faction: 1, SpeedMult: 1.1, CastTimeMult: 0.9, EnergyMult: 1.2},
		}},
	}}
}
