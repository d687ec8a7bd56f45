package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultInteractionConfigIsValid(t *testing.T) {
	cfg := DefaultInteractionConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.55, cfg.Grabber.GrabBeginThreshold)
	assert.Equal(t, 0.35, cfg.Grabber.GrabEndThreshold)
	assert.True(t, cfg.Grabber.HideOnGrab)
	assert.Equal(t, 10.0, cfg.Trail.StartTime)
	assert.Equal(t, 2.0, cfg.Trail.DesiredTime)
}

func TestParseInteractionConfigKeepsDefaultsForMissingFields(t *testing.T) {
	cfg, err := ParseInteractionConfig([]byte(`
trail:
  height: 0.5
blade:
  speed: 2
`))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Trail.Height)
	assert.Equal(t, 0.1, cfg.Trail.MinDistance, "未配置字段保留默认值")
	assert.Equal(t, 2.0, cfg.Blade.Speed)
	assert.Equal(t, 0.55, cfg.Grabber.GrabBeginThreshold)
	assert.Equal(t, DefaultLayers(), cfg.Layers)
}

func TestParseInteractionConfigMergesLayers(t *testing.T) {
	cfg, err := ParseInteractionConfig([]byte(`
grabber:
  grabbableLayer: Held
layers:
  Held: 12
`))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Layers["Held"])
	assert.Equal(t, 8, cfg.Layers[LayerGrabber], "默认层仍然存在")
}

func TestParseInteractionConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"begin not above end", "grabber: {grabBeginThreshold: 0.3, grabEndThreshold: 0.3}"},
		{"begin out of range", "grabber: {grabBeginThreshold: 1.5}"},
		{"end negative", "grabber: {grabEndThreshold: -0.1}"},
		{"negative trail height", "trail: {height: -1}"},
		{"negative min distance", "trail: {minDistance: -0.1}"},
		{"zero blade speed", "blade: {speed: 0}"},
		{"NaN begin threshold", "grabber: {grabBeginThreshold: .nan}"},
		{"NaN end threshold", "grabber: {grabEndThreshold: .nan}"},
		{"NaN trail start time", "trail: {startTime: .nan}"},
		{"infinite desired time", "trail: {desiredTime: .inf}"},
		{"NaN blade speed", "blade: {speed: .nan}"},
		{"unknown grabber layer", "grabber: {grabberLayer: Hands}"},
		{"layer out of range", "layers: {Extra: 40}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInteractionConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateReportsFirstInvalidTrailField(t *testing.T) {
	cfg := DefaultInteractionConfig()
	cfg.Trail.Height = -1
	cfg.Trail.DesiredTime = -2
	cfg.Trail.EndVelocityThreshold = -3

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "trail.height")
	}
}

func TestParseInteractionConfigMalformedYAML(t *testing.T) {
	_, err := ParseInteractionConfig([]byte("grabber: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadInteractionConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interaction.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trail:\n  desiredTime: 4\n"), 0o644))

	cfg, err := LoadInteractionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Trail.DesiredTime)

	_, err = LoadInteractionConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadShippedInteractionConfig(t *testing.T) {
	cfg, err := LoadInteractionConfig(filepath.Join("..", "..", "data", "interaction.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultInteractionConfig(), cfg)
}

func TestLayerTable(t *testing.T) {
	table, err := NewLayerTable(DefaultLayers())
	require.NoError(t, err)

	layer, err := table.Resolve(LayerGrabbable)
	require.NoError(t, err)
	assert.Equal(t, 9, layer)

	_, err = table.Resolve("Missing")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 0, table.ResolveOrDefault("Missing"))

	_, err = NewLayerTable(map[string]int{"": 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
