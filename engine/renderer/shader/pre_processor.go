// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// single-line //@oxy: annotations and replaces them with registered struct sources or
// generated @group/@binding declarations, so the Go types that own a GPU layout (vertex,
// instance record, camera uniform) stay the single source of truth for their WGSL shape.
//
// Supported annotations:
//
//	//@oxy:include <struct_key>
//	//@oxy:group <group> <binding> <uniform|read|read_write> <var_name> <struct_key>
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// IncludeEntry pairs a WGSL struct definition with the type name it declares.
type IncludeEntry struct {
	// Source is the raw WGSL struct definition injected by @oxy:include.
	Source string
	// Type is the WGSL type name emitted by @oxy:group declarations (e.g. "CameraUniform").
	Type string
}

// addressSpaces maps the group annotation's address space argument to WGSL var<> syntax.
var addressSpaces = map[string]string{
	"uniform":    "var<uniform>",
	"read":       "var<storage, read>",
	"read_write": "var<storage, read_write>",
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	includes map[string]IncludeEntry
}

// PreProcessor expands //@oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every annotation line in source with its WGSL expansion. Lines without
	// an annotation are kept verbatim so reported line numbers stay meaningful.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or references an unknown struct key
	Process(source string) (string, error)

	// Register adds or replaces an include entry.
	//
	// Parameters:
	//   - key: the annotation argument that selects the entry
	//   - entry: the WGSL source and type name
	Register(key string, entry IncludeEntry)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the given include entries.
//
// Parameters:
//   - includes: struct sources keyed by annotation argument (may be nil)
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(includes map[string]IncludeEntry) PreProcessor {
	p := &preProcessor{includes: make(map[string]IncludeEntry, len(includes))}
	for k, v := range includes {
		p.includes[k] = v
	}
	return p
}

func (p *preProcessor) Register(key string, entry IncludeEntry) {
	p.includes[key] = entry
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		_, after, ok := strings.Cut(strings.TrimSpace(line), "//"+annotationPrefix)
		if !ok {
			out = append(out, line)
			continue
		}
		args := strings.Fields(after)
		if len(args) == 0 {
			return "", fmt.Errorf("line %d: empty @oxy annotation", i+1)
		}

		switch args[0] {
		case "include":
			if len(args) != 2 {
				return "", fmt.Errorf("line %d: @oxy:include requires exactly one argument", i+1)
			}
			entry, ok := p.includes[args[1]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, args[1])
			}
			out = append(out, entry.Source)
		case "group":
			decl, err := p.groupDeclaration(args[1:])
			if err != nil {
				return "", fmt.Errorf("line %d: %w", i+1, err)
			}
			out = append(out, decl)
		default:
			return "", fmt.Errorf("line %d: unknown @oxy annotation type %q", i+1, args[0])
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) groupDeclaration(args []string) (string, error) {
	if len(args) != 5 {
		return "", fmt.Errorf("@oxy:group requires group, binding, address space, var name and struct key")
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid group number %q: %w", args[0], err)
	}
	binding, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("invalid binding number %q: %w", args[1], err)
	}
	space, ok := addressSpaces[args[2]]
	if !ok {
		return "", fmt.Errorf("unknown address space %q", args[2])
	}
	entry, ok := p.includes[args[4]]
	if !ok {
		return "", fmt.Errorf("unknown struct key %q", args[4])
	}
	return fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", group, binding, space, args[3], entry.Type), nil
}
