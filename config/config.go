// Package config loads the demo's settings from YAML. Every field has a default, so a missing
// file or a partial document is valid.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid config")

// maxConfigSize bounds the file Load will read.
const maxConfigSize = 1 << 20

// Duration wraps time.Duration for YAML strings such as "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the complete demo configuration.
type Config struct {
	Window    WindowConfig   `yaml:"window"`
	Renderer  RendererConfig `yaml:"renderer"`
	Camera    CameraConfig   `yaml:"camera"`
	Scene     SceneConfig    `yaml:"scene"`
	Overlay   OverlayConfig  `yaml:"overlay"`
	HotReload bool           `yaml:"hot_reload"` // Rebuild pipelines when a shader file on disk changes
	LogLevel  string         `yaml:"log_level"`  // debug, info, warn or error
	FrameCap  int            `yaml:"frame_cap"`  // Maximum frames per second, 0 for unlimited
}

// WindowConfig configures the window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig configures the device and surface.
type RendererConfig struct {
	PresentMode     string     `yaml:"present_mode"` // vsync or uncapped
	ClearColor      [4]float64 `yaml:"clear_color"`  // RGBA in [0, 1]
	ForceSoftware   bool       `yaml:"force_software"`
	ValidateShaders bool       `yaml:"validate_shaders"`
}

// CameraConfig configures the orthographic camera and its keyboard controls.
type CameraConfig struct {
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Zoom     float32 `yaml:"zoom"`
	PanStep  float32 `yaml:"pan_step"`  // World units per arrow key press
	ZoomStep float32 `yaml:"zoom_step"` // Zoom factor per +/- key press
}

// SceneConfig configures what is drawn.
type SceneConfig struct {
	Shader        string           `yaml:"shader"`         // Quad shader file, empty for the built-in one
	OverlayShader string           `yaml:"overlay_shader"` // HUD shader file, empty for the built-in one
	Texture       string           `yaml:"texture"`        // Image file, empty for a checkerboard
	Instances     []InstanceConfig `yaml:"instances"`
}

// InstanceConfig places one quad.
type InstanceConfig struct {
	Translate [3]float32 `yaml:"translate"`
	Scale     float32    `yaml:"scale"`
	Rotate    float32    `yaml:"rotate"` // Degrees about Z
}

// OverlayConfig configures the HUD.
type OverlayConfig struct {
	Enabled bool     `yaml:"enabled"`
	Refresh Duration `yaml:"refresh"`
}

// Default returns the built-in configuration: an 800x600 window showing two quads of scale 100
// at x = -150 and x = 150 over a dark grey background.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-quads",
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			PresentMode:     "vsync",
			ClearColor:      [4]float64{0.2, 0.2, 0.2, 1},
			ValidateShaders: true,
		},
		Camera: CameraConfig{
			Near:     -1000,
			Far:      1000,
			Zoom:     1,
			PanStep:  25,
			ZoomStep: 1.25,
		},
		Scene: SceneConfig{
			Instances: []InstanceConfig{
				{Translate: [3]float32{-150, 0, 0}, Scale: 100},
				{Translate: [3]float32{150, 0, 0}, Scale: 100},
			},
		},
		Overlay: OverlayConfig{
			Enabled: true,
			Refresh: Duration(250 * time.Millisecond),
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default values;
// a present instances list replaces the default one. Unknown keys are rejected.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrInvalidConfig, path, info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: an error if data cannot be parsed or validated
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field for a usable value.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig naming the first bad field, or nil
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return bad("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := renderer.ParsePresentMode(c.Renderer.PresentMode); err != nil {
		return bad("renderer.present_mode: %v", err)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return bad("renderer.clear_color[%d] = %v is outside [0, 1]", i, v)
		}
	}
	if c.Camera.Near == c.Camera.Far {
		return bad("camera near and far are both %v", c.Camera.Near)
	}
	if c.Camera.Zoom <= 0 {
		return bad("camera.zoom %v must be positive", c.Camera.Zoom)
	}
	if c.Camera.PanStep <= 0 {
		return bad("camera.pan_step %v must be positive", c.Camera.PanStep)
	}
	if c.Camera.ZoomStep <= 1 {
		return bad("camera.zoom_step %v must be greater than 1", c.Camera.ZoomStep)
	}
	for i, inst := range c.Scene.Instances {
		if inst.Scale == 0 {
			return bad("scene.instances[%d].scale must not be 0", i)
		}
	}
	if c.Overlay.Refresh < 0 {
		return bad("overlay.refresh %v must not be negative", c.Overlay.Refresh.Duration())
	}
	if _, err := c.Level(); err != nil {
		return bad("log_level: %v", err)
	}
	if c.FrameCap < 0 {
		return bad("frame_cap %d must not be negative", c.FrameCap)
	}
	return nil
}

// Level parses LogLevel.
//
// Returns:
//   - slog.Level: the parsed level
//   - error: an error if LogLevel is not a slog level name
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}
