package main

import (
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-quads/engine/camera"
	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
)

const (
	quadPipelineKey    = "quad"
	overlayPipelineKey = "overlay"
)

// pipelineSource is everything needed to build, and later rebuild, one pipeline.
type pipelineSource struct {
	key      string
	path     string // empty for the embedded shader
	embedded string
	sets     []binding.Set
	options  []pipeline.PipelineBuilderOption
}

// newPreProcessor registers the WGSL declarations owned by Go types.
func newPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(map[string]shader.IncludeEntry{
		"vertex":   {Source: geometry.VertexInputSource, Type: "VertexInput"},
		"instance": {Source: instance.InstanceInputSource, Type: "InstanceInput"},
		"camera":   {Source: camera.GPUCameraUniformSource(), Type: camera.GPUCameraUniformType},
	})
}

// build parses both stages from the same source and returns an unregistered pipeline.
func (ps pipelineSource) build() (pipeline.Pipeline, error) {
	pp := newPreProcessor()
	load := func(stage shader.ShaderType) (shader.Shader, error) {
		key := ps.key + "_" + stage.String()
		if ps.path == "" {
			return shader.NewShaderFromSource(key, stage, ps.embedded, shader.WithPreProcessor(pp))
		}
		return shader.NewShader(key, stage, ps.path, shader.WithPreProcessor(pp))
	}

	vs, err := load(shader.ShaderTypeVertex)
	if err != nil {
		return nil, err
	}
	fs, err := load(shader.ShaderTypeFragment)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindingSets(ps.sets...),
	}
	return pipeline.NewPipeline(ps.key, append(opts, ps.options...)...), nil
}

// pipelineSet builds pipelines and rebuilds the ones backed by a changed file.
type pipelineSet struct {
	r       renderer.Renderer
	sources []pipelineSource
}

// register builds and registers every pipeline.
func (s *pipelineSet) register() error {
	built := make([]pipeline.Pipeline, 0, len(s.sources))
	for _, src := range s.sources {
		p, err := src.build()
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", src.key, err)
		}
		built = append(built, p)
	}
	return s.r.RegisterPipelines(built...)
}

// files returns the shader files on disk, for the watcher.
func (s *pipelineSet) files() []string {
	var out []string
	for _, src := range s.sources {
		if src.path != "" {
			out = append(out, src.path)
		}
	}
	return out
}

// reload rebuilds every pipeline whose shader is path. The previous pipeline stays in use when
// the new source fails to parse or validate.
func (s *pipelineSet) reload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for _, src := range s.sources {
		if src.path == "" {
			continue
		}
		srcAbs, err := filepath.Abs(src.path)
		if err != nil || srcAbs != abs {
			continue
		}
		p, err := src.build()
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", src.key, err)
		}
		if err := s.r.RebuildPipeline(p); err != nil {
			return err
		}
	}
	return nil
}
