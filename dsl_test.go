package dsl

import (
	"testing"

	"github.com/dsljs/dsl/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name: "log macro",
			source: "macros: {\n" +
				"    $macro LOG $msg #(\n" +
				"        console.log(\"[log]\", $msg);\n" +
				"    )#\n" +
				"}\n" +
				"LOG \"ready\"\n",
			expected: "console.log(\"[log]\", \"ready\");\n",
		},
		{
			name:     "no macro block",
			source:   "const x = 1;\n",
			expected: "const x = 1;\n",
		},
		{
			name: "object literal pairs",
			source: "macros: {\n" +
				"$macro OBJ $name [ $( $k : $v ),... ] #(\n" +
				"const $name = {\n" +
				"    $( $k: $v, )...\n" +
				"}\n" +
				")#\n" +
				"}\n" +
				"OBJ point [ x: 1, y: 2 ]\n",
			expected: "const point = {\n    x: 1,\n    y: 2,\n}\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Compile(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompileWithLibrary(t *testing.T) {
	t.Parallel()
	lib, err := macro.NewDefinition("GREET $name", "say($name)")
	require.NoError(t, err)

	got, err := CompileWith("defs: {\n$macro SHOUT $x #( yell($x) )#\n}\nGREET a\nSHOUT b\n", Options{
		Marker:  "defs:",
		Library: []*macro.Definition{lib},
	})
	require.NoError(t, err)
	assert.Equal(t, "say(a)\nyell(b)\n", got)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	_, err := Compile("macros: {\n$macro LOOP #( $(LOOP) )#\n}\n$(LOOP)\n")
	assert.ErrorIs(t, err, macro.ErrExpansionDivergence)

	_, err = Compile("macros: {\n")
	var mbe *macro.MalformedBlockError
	assert.ErrorAs(t, err, &mbe)
}

func TestExtractAndExpand(t *testing.T) {
	t.Parallel()
	defs, err := ExtractMacroDefinitions("$macro GREET $name #( say($name) )#")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	got, err := Expand("GREET \"x\"\n", defs, 0)
	require.NoError(t, err)
	assert.Equal(t, "say(\"x\")\n", got)
}
