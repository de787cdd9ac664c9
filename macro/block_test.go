package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleSource = `macros: {
    // THREE.js constructors with arguments or an index
    $macro THREE $a.$b[$delim...] #(
        const $a = new THREE.$b$delim
    )#

    $macro LOG $msg #(
        console.log("[Macro Log]:", $msg);
    )#

    $macro struct $name [
        $($attr : $val1)...
    ] => {
        $($prop = $value)...
    }
    #(
        const $name = function(){
            const $` + "`${$attr}_var`" + ` = $val1
            return {
                $attr: () => $` + "`${$attr}_var`" + `,
                $($prop: $value,)...
            }
        }
    )#
}
THREE scene.Scene()

if(true){
    THREE mesh.BoxGeometry[0]
}

LOG ` + "`Build done with ${scene}`" + `

struct teste [
    atributo: "teste_atributo"
] => {
    propriedade = "valor teste"
}
`

func TestExtractDefinitions(t *testing.T) {
	t.Parallel()
	block, _, err := StripBlock(exampleSource, "")
	require.NoError(t, err)

	defs, err := ExtractDefinitions(block)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "THREE", defs[0].Head)
	assert.Equal(t, "THREE $a.$b[$delim...]", defs[0].Signature)
	assert.Equal(t, "const $a = new THREE.$b$delim", defs[0].Body)

	assert.Equal(t, "LOG", defs[1].Head)
	assert.Equal(t, `console.log("[Macro Log]:", $msg);`, defs[1].Body)

	assert.Equal(t, "struct", defs[2].Head)
	assert.Equal(t, "const $name = function(){\n"+
		"    const $`${$attr}_var` = $val1\n"+
		"    return {\n"+
		"        $attr: () => $`${$attr}_var`,\n"+
		"        $($prop: $value,)...\n"+
		"    }\n"+
		"}", defs[2].Body)
}

func TestParseSourceAndExpand(t *testing.T) {
	t.Parallel()
	defs, rest, err := ParseSource(exampleSource, DefaultMarker)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	got, err := Expand(rest, defs, DefaultMaxPasses)
	require.NoError(t, err)

	expected := `const scene = new THREE.Scene()

if(true){
    const mesh = new THREE.BoxGeometry[0]
}

console.log("[Macro Log]:", ` + "`Build done with ${scene}`" + `);

const teste = function(){
    const atributo_var = "teste_atributo"
    return {
        atributo: () => atributo_var,
        propriedade: "valor teste",
    }
}
`
	assert.Equal(t, expected, got)
}

func TestExtractDefinitionsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		block   string
		wrapped any
	}{
		{name: "missing head", block: "$macro $x y #( z )#", wrapped: new(*PatternCompileError)},
		{name: "unterminated group", block: "$macro LIST $( $a #( z )#", wrapped: new(*PatternCompileError)},
		{name: "unterminated string", block: "$macro SAY \"x #( z )#", wrapped: new(*TokenizeError)},
		{name: "missing body", block: "$macro SAY $x", wrapped: nil},
		{name: "unterminated body", block: "$macro SAY $x #( say($x)", wrapped: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractDefinitions(tt.block)
			require.Error(t, err)
			var mbe *MalformedBlockError
			require.ErrorAs(t, err, &mbe)
			if tt.wrapped != nil {
				assert.ErrorAs(t, err, tt.wrapped)
			}
		})
	}
}

func TestExtractDefinitionsIgnoresInlineMarker(t *testing.T) {
	t.Parallel()
	defs, err := ExtractDefinitions("note $macro A #( b )#\n$macro B #( c )#")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "B", defs[0].Head)
	assert.Equal(t, "c", defs[0].Body)
}

func TestExtractDefinitionsOpaqueBody(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		block    string
		expected string
	}{
		{
			name:     "regex literal with a quote",
			block:    "$macro STRIP $s #(\n    $s.replace(/'/g, \"\")\n)#",
			expected: "$s.replace(/'/g, \"\")",
		},
		{
			name:     "body end inside a string",
			block:    "$macro SAY $x #( say(\")#\", $x) )#",
			expected: "say(\")#\", $x)",
		},
		{
			name:     "body end inside a comment",
			block:    "$macro SAY $x #( say($x) /* )# */ )#",
			expected: "say($x) /* )# */",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defs, err := ExtractDefinitions(tt.block)
			require.NoError(t, err)
			require.Len(t, defs, 1)
			assert.Equal(t, tt.expected, defs[0].Body)
		})
	}
}

func TestParseSourceRegexBody(t *testing.T) {
	t.Parallel()
	source := "macros: {\n" +
		"    $macro STRIP $s #(\n" +
		"        $s.replace(/'/g, \"\")\n" +
		"    )#\n" +
		"}\n" +
		"STRIP name\n"

	defs, rest, err := ParseSource(source, DefaultMarker)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	got, err := Expand(rest, defs, 0)
	require.NoError(t, err)
	assert.Equal(t, "name.replace(/'/g, \"\")\n", got)
}

func TestStripBlock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		source    string
		marker    string
		wantBlock string
		wantRest  string
	}{
		{
			name:      "no block",
			source:    "GREET x\n",
			wantBlock: "",
			wantRest:  "GREET x\n",
		},
		{
			name:      "block with trailing newline",
			source:    "macros: {\n  $macro A #( b )#\n}\nA\n",
			wantBlock: "\n  $macro A #( b )#\n",
			wantRest:  "A\n",
		},
		{
			name:      "braces inside literals and comments",
			source:    "// header\nmacros: { $macro A #( '}' )# /* } */ }\nrest",
			wantBlock: " $macro A #( '}' )# /* } */ ",
			wantRest:  "// header\nrest",
		},
		{
			name:      "marker inside string is ignored",
			source:    "const s = \"macros: {\"\n",
			wantBlock: "",
			wantRest:  "const s = \"macros: {\"\n",
		},
		{
			name:      "custom marker",
			source:    "defs: {\n$macro A #( b )#\n}\r\nA",
			marker:    "defs:",
			wantBlock: "\n$macro A #( b )#\n",
			wantRest:  "A",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			block, rest, err := StripBlock(tt.source, tt.marker)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlock, block)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestStripBlockErrors(t *testing.T) {
	t.Parallel()
	for _, source := range []string{
		"macros: GREET x",
		"macros: {\n$macro A #( b )#\n",
	} {
		_, _, err := StripBlock(source, DefaultMarker)
		var mbe *MalformedBlockError
		assert.ErrorAs(t, err, &mbe, source)
	}
}

func TestDedent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{input: "\n    a\n      b\n    c\n  ", expected: "a\n  b\nc"},
		{input: "\n\n\tx\n\n\ty", expected: "x\n\ny"},
		{input: "  one", expected: "one"},
		{input: " \n \n", expected: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, dedent(tt.input))
	}
}

func TestParseSourceErrorOffset(t *testing.T) {
	t.Parallel()
	source := "// lib\nmacros: {\n$macro $x y #( z )#\n}\n"
	_, _, err := ParseSource(source, DefaultMarker)
	var mbe *MalformedBlockError
	require.ErrorAs(t, err, &mbe)
	assert.Equal(t, 17, mbe.Offset)
	assert.Equal(t, "$macro", source[mbe.Offset:mbe.Offset+6])
}
