package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUniform = "struct Globals {\n    time: f32,\n};"

func newTestPreProcessor() PreProcessor {
	return NewPreProcessor(map[string]IncludeEntry{
		"globals": {Source: testUniform, Type: "Globals"},
	})
}

func TestProcessExpandsAnnotations(t *testing.T) {
	out, err := newTestPreProcessor().Process("//@oxy:include globals\n  //@oxy:group 1 2 uniform globals globals\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, testUniform+"\n@group(1) @binding(2) var<uniform> globals: Globals;\nfn f() {}", out)
}

func TestProcessAddressSpaces(t *testing.T) {
	pp := newTestPreProcessor()
	out, err := pp.Process("//@oxy:group 0 0 read data globals")
	require.NoError(t, err)
	assert.Equal(t, "@group(0) @binding(0) var<storage, read> data: Globals;", out)

	out, err = pp.Process("//@oxy:group 0 1 read_write data globals")
	require.NoError(t, err)
	assert.Equal(t, "@group(0) @binding(1) var<storage, read_write> data: Globals;", out)
}

func TestProcessKeepsPlainLines(t *testing.T) {
	src := "// a comment\nfn f() {}\n"
	out, err := NewPreProcessor(nil).Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestProcessRejectsBadAnnotations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "//@oxy:"},
		{"unknown type", "//@oxy:define X"},
		{"unknown include", "//@oxy:include missing"},
		{"include arity", "//@oxy:include globals extra"},
		{"group arity", "//@oxy:group 0 0 uniform globals"},
		{"group number", "//@oxy:group x 0 uniform globals globals"},
		{"binding number", "//@oxy:group 0 y uniform globals globals"},
		{"address space", "//@oxy:group 0 0 private globals globals"},
		{"group struct", "//@oxy:group 0 0 uniform globals missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPreProcessor().Process(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestRegisterAddsInclude(t *testing.T) {
	pp := NewPreProcessor(nil)
	_, err := pp.Process("//@oxy:include globals")
	require.Error(t, err)

	pp.Register("globals", IncludeEntry{Source: testUniform, Type: "Globals"})
	out, err := pp.Process("//@oxy:include globals")
	require.NoError(t, err)
	assert.Equal(t, testUniform, out)
}
