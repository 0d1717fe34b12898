package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfranzke/leitstelle/core/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"difficulty": "veteran",
		"game_speed": 2,
		"incident": {"incidents_per_hour": 20},
		"logging": {"level": "debug"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DifficultyVeteran, cfg.Difficulty)
	assert.Equal(t, 2.0, cfg.GameSpeed)
	// Explicit values win over the preset.
	assert.Equal(t, 20.0, cfg.Incident.IncidentsPerHour)
	// Preset fills what the file left unset.
	assert.Equal(t, 10.0, cfg.ShiftHours)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
difficulty: rookie
tick_hz: 20
api:
  enabled: true
  addr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DifficultyRookie, cfg.Difficulty)
	assert.Equal(t, 20.0, cfg.TickHz)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":9090", cfg.API.Addr)
	assert.Equal(t, 8.0, cfg.Incident.IncidentsPerHour)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_DIFFICULTY", "veteran")
	path := writeConfig(t, "config.yaml", "difficulty: rookie\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DifficultyVeteran, cfg.Difficulty)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "difficulty = \"rookie\"\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DifficultyRegular, cfg.Difficulty)
	assert.Equal(t, 1.0, cfg.GameSpeed)
	assert.NotEmpty(t, cfg.World.Areas)
	assert.NotEmpty(t, cfg.World.Roster)
	assert.NotEmpty(t, cfg.Incident.Areas, "incident areas fall back to the world areas")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Difficulty = "nightmare"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.World.Roster = []RosterEntry{{Type: "submarine", Count: 1}}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.World.Roster = []RosterEntry{{Type: "patrol_car", Count: 0}}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestApplyPresetKeepsExplicitValues(t *testing.T) {
	cfg := &Config{Difficulty: DifficultyVeteran, ShiftHours: 4}
	cfg.Incident.EscalationChance = 0.5
	ApplyPreset(cfg)
	assert.Equal(t, 4.0, cfg.ShiftHours)
	assert.Equal(t, 0.5, cfg.Incident.EscalationChance)
	assert.Equal(t, 18.0, cfg.Incident.IncidentsPerHour)
}

func TestDifficultyFactor(t *testing.T) {
	assert.Equal(t, 0.8, (&Config{Difficulty: DifficultyRookie}).DifficultyFactor())
	assert.Equal(t, 1.0, (&Config{Difficulty: DifficultyRegular}).DifficultyFactor())
	assert.Equal(t, 1.3, (&Config{Difficulty: DifficultyVeteran}).DifficultyFactor())
	assert.Equal(t, 1.0, (&Config{Difficulty: "unknown"}).DifficultyFactor())
}

func TestPresetNames(t *testing.T) {
	for _, name := range PresetNames() {
		_, ok := presets[name]
		assert.True(t, ok, name)
	}
}

func TestBuildFleet(t *testing.T) {
	w := WorldConfig{
		Station: model.Position{Lat: 50.9375, Lon: 6.9603},
		Roster: []RosterEntry{
			{Type: "patrol_car", Count: 2},
			{Type: "helicopter", Count: 1},
		},
	}
	fleet := w.BuildFleet()
	require.Len(t, fleet, 3)
	assert.Equal(t, "v-01", fleet[0].ID)
	assert.Equal(t, model.TypePatrolCar, fleet[0].Type)
	assert.Contains(t, fleet[0].CallSign, "Adler")
	assert.Contains(t, fleet[2].CallSign, "Libelle")
	for _, v := range fleet {
		assert.Equal(t, w.Station, v.Position)
		assert.Equal(t, 100.0, v.FuelLevel)
	}
}
