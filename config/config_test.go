package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, [4]float64{0.2, 0.2, 0.2, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, float32(-1000), cfg.Camera.Near)
	assert.Equal(t, float32(1000), cfg.Camera.Far)
	require.Len(t, cfg.Scene.Instances, 2)
	assert.Equal(t, [3]float32{-150, 0, 0}, cfg.Scene.Instances[0].Translate)
	assert.Equal(t, float32(100), cfg.Scene.Instances[1].Scale)
	assert.Equal(t, 250*time.Millisecond, cfg.Overlay.Refresh.Duration())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
window:
  title: quads
  width: 1024
renderer:
  present_mode: uncapped
camera:
  zoom: 2
scene:
  texture: assets/crate.png
  instances:
    - translate: [0, 50, 0]
      scale: 40
      rotate: 45
overlay:
  refresh: 500ms
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "quads", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "uncapped", cfg.Renderer.PresentMode)
	assert.Equal(t, float32(2), cfg.Camera.Zoom)
	assert.Equal(t, float32(-1000), cfg.Camera.Near)
	assert.Equal(t, "assets/crate.png", cfg.Scene.Texture)
	require.Len(t, cfg.Scene.Instances, 1)
	assert.Equal(t, float32(45), cfg.Scene.Instances[0].Rotate)
	assert.Equal(t, 500*time.Millisecond, cfg.Overlay.Refresh.Duration())
	assert.True(t, cfg.Overlay.Enabled)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "windw:\n  width: 10\n"},
		{"bad yaml", "window: [\n"},
		{"zero width", "window:\n  width: 0\n"},
		{"present mode", "renderer:\n  present_mode: mailbox\n"},
		{"clear color", "renderer:\n  clear_color: [0, 0, 2, 1]\n"},
		{"equal planes", "camera:\n  near: 5\n  far: 5\n"},
		{"zoom", "camera:\n  zoom: 0\n"},
		{"zoom step", "camera:\n  zoom_step: 1\n"},
		{"instance scale", "scene:\n  instances:\n    - translate: [0, 0, 0]\n"},
		{"duration", "overlay:\n  refresh: soon\n"},
		{"log level", "log_level: loud\n"},
		{"frame cap", "frame_cap: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quads.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frame_cap: 30\nhot_reload: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.FrameCap)
	assert.True(t, cfg.HotReload)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
