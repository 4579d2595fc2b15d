package shader

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrEntryPointMissing is returned when a named entry point is not declared for the requested stage.
var ErrEntryPointMissing = errors.New("shader entry point missing")

// ShaderType identifies the pipeline stage a shader is used for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// stage returns the wgpu visibility flag for this shader type.
func (t ShaderType) stage() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and binding verification.
type shader struct {
	key        string
	path       string
	source     string
	shaderType ShaderType

	entryPoints   map[ShaderType][]string
	vertexLayouts []wgpu.VertexBufferLayout
	bindings      []parsedBinding
	functions     map[string]string
	structSizes   map[string]wgslTypeLayout

	pp PreProcessor
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, processed source, entry points, bind group layout descriptors and vertex buffer
// layouts needed for pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Path returns the file the shader was loaded from, or an empty string for in-memory sources.
	Path() string

	// Source retrieves the processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader is used for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the first entry point declared for this shader's stage, or an empty string.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// HasEntryPoint reports whether name is declared as an entry point for this shader's stage.
	//
	// Parameters:
	//   - name: the function name to look up
	//
	// Returns:
	//   - bool: true if the function exists with the matching stage attribute
	HasEntryPoint(name string) bool

	// VertexLayouts returns the vertex buffer layouts parsed from the shader's input structs, in
	// buffer slot order: per-vertex layouts first, then structs whose name starts with "Instance",
	// which step per instance. Fragment shaders return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts indexed by vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors returns the bind group layouts used by the default entry point.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutsFor returns the bind group layouts as seen from the named entry point.
	// Each binding's visibility is this shader's stage when the entry point, or any function it
	// calls, references the binding's variable, and wgpu.ShaderStageNone otherwise.
	//
	// Parameters:
	//   - entryPoint: the entry point whose usage decides visibility
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutsFor(entryPoint string) map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reads WGSL from sourcePath, runs the pre-processor over it, and parses the layout
// metadata needed to build a pipeline.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the shader is used for
//   - sourcePath: the file path to read WGSL source from
//   - opts: variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read or the source cannot be pre-processed
func NewShader(key string, shaderType ShaderType, sourcePath string, opts ...ShaderBuilderOption) (Shader, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("shader %s: empty source path", key)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, sourcePath, err)
	}
	s, err := NewShaderFromSource(key, shaderType, string(data), opts...)
	if err != nil {
		return nil, err
	}
	s.(*shader).path = sourcePath
	return s, nil
}

// NewShaderFromSource parses WGSL held in memory, typically an embedded asset.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - source: the raw WGSL source
//   - opts: variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the source is empty or cannot be pre-processed
func NewShaderFromSource(key string, shaderType ShaderType, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		pp:         NewPreProcessor(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.parseSource(source); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	if eps := s.entryPoints[s.shaderType]; len(eps) > 0 {
		return eps[0]
	}
	return ""
}

func (s *shader) HasEntryPoint(name string) bool {
	return slices.Contains(s.entryPoints[s.shaderType], name)
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.BindGroupLayoutsFor(s.EntryPoint())
}

func (s *shader) BindGroupLayoutsFor(entryPoint string) map[int]wgpu.BindGroupLayoutDescriptor {
	used := referencedIdentifiers(entryPoint, s.functions)
	return buildBindGroupLayouts(s.bindings, s.structSizes, func(varName string) wgpu.ShaderStage {
		if used[varName] {
			return s.shaderType.stage()
		}
		return wgpu.ShaderStageNone
	})
}

func (s *shader) BindGroupVarName(group, binding int) string {
	for _, b := range s.bindings {
		if b.group == group && b.binding == binding {
			return b.varName
		}
	}
	return ""
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}

// parseSource pre-processes the WGSL source and extracts entry points, vertex layouts,
// resource bindings and function bodies.
func (s *shader) parseSource(raw string) error {
	if raw == "" {
		return fmt.Errorf("shader %s: empty source", s.key)
	}
	processed, err := s.pp.Process(raw)
	if err != nil {
		return fmt.Errorf("shader %s: failed to pre-process source: %w", s.key, err)
	}
	s.source = processed

	cleaned := stripComments(processed)
	structs := parseStructBlocks(cleaned)

	s.entryPoints = parseEntryPoints(cleaned)
	s.functions = parseFunctions(cleaned)
	s.structSizes = computeStructSizes(structs)
	s.bindings = parseBindings(cleaned)
	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(structs)
	}
	return nil
}
