package config

// Difficulty preset names.
const (
	DifficultyRookie  = "rookie"
	DifficultyRegular = "regular"
	DifficultyVeteran = "veteran"
)

// preset bundles the tuning knobs a difficulty selects. Explicit config
// values always win over the preset.
type preset struct {
	IncidentsPerHour   float64
	EscalationChance   float64
	MassCasualtyChance float64
	ShiftHours         float64
	// Multiplier scales crew fatigue accumulation.
	Multiplier float64
	// Roster lists vehicle type and count pairs for the default fleet.
	Roster []RosterEntry
}

var presets = map[string]preset{
	DifficultyRookie: {
		IncidentsPerHour:   8,
		EscalationChance:   0.05,
		MassCasualtyChance: 0.01,
		ShiftHours:         6,
		Multiplier:         0.8,
		Roster: []RosterEntry{
			{Type: "patrol_car", Count: 5},
			{Type: "squad_van", Count: 2},
			{Type: "motorcycle", Count: 1},
			{Type: "helicopter", Count: 1},
		},
	},
	DifficultyRegular: {
		IncidentsPerHour:   12,
		EscalationChance:   0.1,
		MassCasualtyChance: 0.02,
		ShiftHours:         8,
		Multiplier:         1,
		Roster: []RosterEntry{
			{Type: "patrol_car", Count: 4},
			{Type: "unmarked_car", Count: 1},
			{Type: "squad_van", Count: 1},
			{Type: "motorcycle", Count: 1},
			{Type: "dog_unit", Count: 1},
			{Type: "helicopter", Count: 1},
		},
	},
	DifficultyVeteran: {
		IncidentsPerHour:   18,
		EscalationChance:   0.15,
		MassCasualtyChance: 0.04,
		ShiftHours:         10,
		Multiplier:         1.3,
		Roster: []RosterEntry{
			{Type: "patrol_car", Count: 3},
			{Type: "unmarked_car", Count: 1},
			{Type: "squad_van", Count: 1},
			{Type: "motorcycle", Count: 1},
			{Type: "dog_unit", Count: 1},
			{Type: "helicopter", Count: 1},
		},
	},
}

// PresetNames lists the selectable difficulties.
func PresetNames() []string {
	return []string{DifficultyRookie, DifficultyRegular, DifficultyVeteran}
}

// ApplyPreset copies preset values into unset config fields.
func ApplyPreset(c *Config) {
	p, ok := presets[c.Difficulty]
	if !ok {
		return
	}
	if c.Incident.IncidentsPerHour <= 0 {
		c.Incident.IncidentsPerHour = p.IncidentsPerHour
	}
	if c.Incident.EscalationChance <= 0 {
		c.Incident.EscalationChance = p.EscalationChance
	}
	if c.Incident.MassCasualtyChance <= 0 {
		c.Incident.MassCasualtyChance = p.MassCasualtyChance
	}
	if c.ShiftHours <= 0 {
		c.ShiftHours = p.ShiftHours
	}
	if len(c.World.Roster) == 0 {
		c.World.Roster = p.Roster
	}
}

// DifficultyFactor returns the fatigue multiplier of the active preset.
func (c *Config) DifficultyFactor() float64 {
	if p, ok := presets[c.Difficulty]; ok {
		return p.Multiplier
	}
	return 1
}
