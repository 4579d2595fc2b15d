package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// instanceStructPrefix marks vertex input structs that advance once per instance.
const instanceStructPrefix = "Instance"

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

// wgslTextureDimMap maps WGSL sampled texture base names to their view dimension
var wgslTextureDimMap = map[string]wgpu.TextureViewDimension{
	"texture_1d":       wgpu.TextureViewDimension1D,
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_3d":       wgpu.TextureViewDimension3D,
	"texture_cube":     wgpu.TextureViewDimensionCube,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// entryRegex matches a stage attribute followed by the function it decorates
	entryRegex = regexp.MustCompile(`(?s)@(vertex|fragment)\b.*?\bfn\s+(\w+)`)

	// fnRegex matches the start of a function declaration
	fnRegex = regexp.MustCompile(`\bfn\s+(\w+)\s*\(`)

	// identRegex matches WGSL identifiers
	identRegex = regexp.MustCompile(`[A-Za-z_]\w*`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts converts every pure vertex input struct (has @location fields and no
// @builtin fields) into a vertex buffer layout. Per-vertex layouts come first in source
// order, followed by per-instance layouts, so the result index is the vertex buffer slot.
// Structs containing unrecognized WGSL types are skipped.
//
// Parameters:
//   - structs: the parsed struct blocks of the shader
//
// Returns:
//   - []wgpu.VertexBufferLayout: layouts ordered by buffer slot
func parseVertexLayouts(structs []parsedStruct) []wgpu.VertexBufferLayout {
	var perVertex, perInstance []wgpu.VertexBufferLayout
	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		layout, ok := buildVertexBufferLayout(ps)
		if !ok {
			continue
		}
		if layout.StepMode == wgpu.VertexStepModeInstance {
			perInstance = append(perInstance, layout)
		} else {
			perVertex = append(perVertex, layout)
		}
	}
	return append(perVertex, perInstance...)
}

// parseBindings extracts all @group(N) @binding(M) resource declarations from cleaned source.
func parseBindings(cleaned string) []parsedBinding {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)
	out := make([]parsedBinding, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		out = append(out, parsedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(match[3]),
			varName:      strings.TrimSpace(match[4]),
			typeName:     strings.TrimSpace(match[5]),
		})
	}
	return out
}

// buildBindGroupLayouts groups parsed bindings into layout descriptors keyed by group index,
// with entries sorted by binding index. Buffer entries get MinBindingSize from the resolved
// struct layout.
//
// Parameters:
//   - bindings: the parsed resource declarations
//   - structSizes: resolved layouts of the shader's structs
//   - visibility: returns the stage flags for a binding variable
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
func buildBindGroupLayouts(bindings []parsedBinding, structSizes map[string]wgslTypeLayout, visibility func(varName string) wgpu.ShaderStage) map[int]wgpu.BindGroupLayoutDescriptor {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, b := range bindings {
		entry := classifyResource(uint32(b.binding), visibility(b.varName), b.addressSpace, b.typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(b.typeName, structSizes); ok {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[b.group] = append(groups[b.group], entry)
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}

// parseEntryPoints collects the names of all @vertex and @fragment functions, in source order.
func parseEntryPoints(cleaned string) map[ShaderType][]string {
	out := make(map[ShaderType][]string)
	for _, m := range entryRegex.FindAllStringSubmatch(cleaned, -1) {
		switch m[1] {
		case "vertex":
			out[ShaderTypeVertex] = append(out[ShaderTypeVertex], m[2])
		case "fragment":
			out[ShaderTypeFragment] = append(out[ShaderTypeFragment], m[2])
		}
	}
	return out
}

// parseFunctions maps every function name to its body text, braces excluded.
func parseFunctions(cleaned string) map[string]string {
	out := make(map[string]string)
	for _, loc := range fnRegex.FindAllStringSubmatchIndex(cleaned, -1) {
		name := cleaned[loc[2]:loc[3]]
		open := strings.IndexByte(cleaned[loc[1]:], '{')
		if open < 0 {
			continue
		}
		start := loc[1] + open + 1
		depth := 1
		end := start
		for end < len(cleaned) && depth > 0 {
			switch cleaned[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		if depth != 0 {
			continue
		}
		out[name] = cleaned[start : end-1]
	}
	return out
}

// referencedIdentifiers returns every identifier used by entry and the functions it calls,
// transitively.
func referencedIdentifiers(entry string, functions map[string]string) map[string]bool {
	used := make(map[string]bool)
	visited := map[string]bool{}
	queue := []string{entry}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		body, ok := functions[name]
		if !ok {
			continue
		}
		for _, id := range identRegex.FindAllString(body, -1) {
			used[id] = true
			if _, isFn := functions[id]; isFn && !visited[id] {
				queue = append(queue, id)
			}
		}
	}
	return used
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}
