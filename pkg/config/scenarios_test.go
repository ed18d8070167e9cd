package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenariosDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadScenariosFromFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Len(t, cfg.Scenarios, 3)

	s, ok := cfg.Find("Corner to corner")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"seed":     1,
		"object_x": 420.0,
		"object_y": 80.0,
		"home_x":   60.0,
		"home_y":   420.0,
	}, s.Params())

	random, ok := cfg.Find("Random")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"seed": 1}, random.Params())
}

func TestScenarioAddRemoveAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".swarm-sim", "scenarios.yaml")
	cfg := &Config{}

	require.NoError(t, cfg.Add(Scenario{Name: "big", Seed: 9, SwarmSize: 6}))
	assert.Error(t, cfg.Add(Scenario{Name: "big"}))
	assert.Error(t, cfg.Add(Scenario{}))
	require.NoError(t, cfg.Add(Scenario{Name: "tmp"}))
	require.NoError(t, cfg.Remove("tmp"))
	assert.Error(t, cfg.Remove("tmp"))

	require.NoError(t, SaveScenariosToFile(cfg, path))
	loaded, err := LoadScenariosFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 6, loaded.Scenarios[0].Params()["swarm_size"])
}

func TestLoadScenariosUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SaveScenarios(&Config{Scenarios: []Scenario{{Name: "only", Seed: 2}}}))
	_, err := os.Stat(filepath.Join(home, ".swarm-sim", "scenarios.yaml"))
	require.NoError(t, err)

	cfg, err := LoadScenarios()
	require.NoError(t, err)
	require.Len(t, cfg.Scenarios, 1)
	assert.Equal(t, uint64(2), cfg.Scenarios[0].Seed)
}

func TestLoadScenariosRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios: [unclosed"), 0644))
	_, err := LoadScenariosFromFile(path)
	assert.Error(t, err)
}
