// Command quads opens a window and draws textured, instanced quads under an orthographic camera
// with a debug panel on top. Drop an image on the window to replace the texture.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-quads/assets"
	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/config"
	"github.com/Carmen-Shannon/oxy-quads/engine"
	"github.com/Carmen-Shannon/oxy-quads/engine/camera"
	"github.com/Carmen-Shannon/oxy-quads/engine/frame"
	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/overlay"
	"github.com/Carmen-Shannon/oxy-quads/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quads/engine/scene"
	"github.com/Carmen-Shannon/oxy-quads/engine/texture"
	"github.com/Carmen-Shannon/oxy-quads/engine/window"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// GLFW must run on the process's main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file (defaults are used when empty)")
	logLevel := flag.String("log-level", "", "overrides log_level: debug, info, warn or error")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := cfg.Level()
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		common.Logger().Error("quads stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads path over the defaults and applies the log level flag.
func loadConfig(path, logLevel string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// run builds every component in dependency order and blocks until the window closes.
func run(cfg config.Config) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	presentMode, _ := renderer.ParsePresentMode(cfg.Renderer.PresentMode)
	cc := cfg.Renderer.ClearColor
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
		renderer.WithShaderValidation(cfg.Renderer.ValidateShaders),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Release()

	cam, err := camera.New(r, win.Width(), win.Height(),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithZoom(cfg.Camera.Zoom),
	)
	if err != nil {
		return err
	}
	defer cam.Release()
	controller := camera.NewCameraController(cam,
		camera.WithPanStep(cfg.Camera.PanStep),
		camera.WithZoomStep(cfg.Camera.ZoomStep),
	)

	quad, instances, err := newQuadMesh(r, cfg.Scene.Instances)
	if err != nil {
		return err
	}
	// The scene owns the mesh once it exists.
	sceneOwnsMesh := false
	defer func() {
		if !sceneOwnsMesh {
			instances.Release()
			quad.Release()
		}
	}()

	staging := texture.Checkerboard(256, 8)
	if cfg.Scene.Texture != "" {
		if staging, err = texture.Load(cfg.Scene.Texture); err != nil {
			return err
		}
	}
	diffuse, err := texture.New(r, "diffuse", staging, 0)
	if err != nil {
		return err
	}

	sc, err := scene.NewScene("quads", cam, scene.WithRenderables(scene.Renderable{
		PipelineKey: quadPipelineKey,
		Geometry:    quad,
		Instances:   instances,
		Bindings:    []bind_group_provider.BindGroupProvider{diffuse.BindGroupProvider()},
	}))
	if err != nil {
		return err
	}
	sceneOwnsMesh = true
	defer sc.Release()
	defer diffuse.Release()

	prof := profiler.NewProfiler()
	var frames frame.FrameRenderer

	sources := []pipelineSource{{
		key:      quadPipelineKey,
		path:     cfg.Scene.Shader,
		embedded: assets.QuadShader,
		sets:     []binding.Set{cam.BindingSet(), diffuse.BindingSet()},
	}}
	keyHandlers := []engine.KeyHandler{controller.HandleKey}
	var frameOptions []frame.FrameRendererBuilderOption

	if cfg.Overlay.Enabled {
		hud, err := overlay.NewHUD(r, overlayPipelineKey,
			overlay.WithTitle(cfg.Window.Title),
			overlay.WithRefreshInterval(cfg.Overlay.Refresh.Duration()),
			overlay.WithStatsSource(func() []string {
				return statsLines(prof.Stats(), frames.Stats(), cam.Zoom())
			}),
		)
		if err != nil {
			return err
		}
		defer hud.Release()
		sources = append(sources, pipelineSource{
			key:      overlayPipelineKey,
			path:     cfg.Scene.OverlayShader,
			embedded: assets.OverlayShader,
			sets:     []binding.Set{hud.BindingSet()},
			options:  []pipeline.PipelineBuilderOption{pipeline.WithAlphaBlending()},
		})
		keyHandlers = append(keyHandlers, hud.HandleKey)
		frameOptions = append(frameOptions, frame.WithOverlays(hud))
	}

	pipelines := &pipelineSet{r: r, sources: sources}
	if err := pipelines.register(); err != nil {
		return err
	}

	frames, err = frame.NewFrameRenderer(r, sc, frameOptions...)
	if err != nil {
		return err
	}

	loader := texture.NewLoader()
	defer loader.Close()
	options := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithFrameRenderer(frames),
		engine.WithSurface(r),
		engine.WithResizers(sc),
		engine.WithKeyHandlers(keyHandlers...),
		engine.WithScrollHandler(controller.HandleScroll),
		engine.WithProfiler(prof),
		engine.WithTextureLoader(loader, diffuse),
		engine.WithRenderFrameLimit(float64(cfg.FrameCap)),
	}
	if cfg.HotReload {
		watchOption, err := hotReload(pipelines)
		if err != nil {
			return err
		}
		if watchOption != nil {
			options = append(options, watchOption)
		}
	}

	eng, err := engine.NewEngine(options...)
	if err != nil {
		return err
	}
	return eng.Run()
}

// meshDevice uploads the quad mesh and its instance records. Satisfied by renderer.Renderer.
type meshDevice interface {
	geometry.MeshUploader
	instance.Publisher
}

// newQuadMesh uploads the unit quad and one instance record per configured placement.
// The quad is released when the instances cannot be published.
func newQuadMesh(dev meshDevice, placements []config.InstanceConfig) (geometry.GeometryBuffer, instance.InstanceBuffer, error) {
	quad, err := geometry.New(dev, "quad", geometry.Plane(), geometry.PlaneIndices())
	if err != nil {
		return nil, nil, err
	}

	records := make([]instance.Record, 0, len(placements))
	for _, ic := range placements {
		records = append(records, instance.FromTransform(ic.Translate, ic.Rotate*math32.Pi/180, ic.Scale))
	}
	instances, err := instance.New(dev, "quad_instances", records)
	if err != nil {
		quad.Release()
		return nil, nil, err
	}
	return quad, instances, nil
}

// hotReload watches the configured shader files. It returns a nil option when every shader
// is embedded.
func hotReload(pipelines *pipelineSet) (engine.EngineBuilderOption, error) {
	files := pipelines.files()
	if len(files) == 0 {
		common.Logger().Warn("hot_reload is set but all shaders are built in")
		return nil, nil
	}
	watcher, err := shader.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := watcher.Add(f); err != nil {
			if cerr := watcher.Close(); cerr != nil {
				common.Logger().Warn("failed to close shader watcher", "error", cerr)
			}
			return nil, err
		}
	}
	common.Logger().Info("watching shaders", "files", files)
	return engine.WithShaderReload(watcher, pipelines.reload), nil
}

// statsLines formats the debug panel body.
func statsLines(ps profiler.Stats, fs frame.Stats, zoom float32) []string {
	return []string{
		fmt.Sprintf("fps %.1f  frame %.2f ms", ps.FPS, float64(ps.FrameTime.Microseconds())/1000),
		fmt.Sprintf("heap %.1f MB  gc %d  pause %s", ps.HeapMB, ps.GCCount, ps.MaxPause),
		fmt.Sprintf("frames %d  skipped %d  draws %d", fs.Rendered, fs.Skipped, fs.Draws),
		fmt.Sprintf("zoom %.2f", zoom),
		"F1 panel  arrows pan  +/- zoom  R reset",
	}
}
