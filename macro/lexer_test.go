package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "words symbols and placeholders",
			input: "LOG $msg;",
			expected: []Token{
				{Kind: TokenWord, Text: "LOG", Span: Span{0, 3}},
				{Kind: TokenPlaceholder, Text: "$msg", Span: Span{4, 8}},
				{Kind: TokenSymbol, Text: ";", Span: Span{8, 9}},
			},
		},
		{
			name:  "template with nested interpolation",
			input: "x = `a ${b + `c${d}`}` // note\n$y",
			expected: []Token{
				{Kind: TokenWord, Text: "x", Span: Span{0, 1}},
				{Kind: TokenSymbol, Text: "=", Span: Span{2, 3}},
				{Kind: TokenTemplate, Text: "`a ${b + `c${d}`}`", Span: Span{4, 22}},
				{Kind: TokenNewline, Text: "\n", Span: Span{30, 31}},
				{Kind: TokenPlaceholder, Text: "$y", Span: Span{31, 33}},
			},
		},
		{
			name:  "escaped quote stays inside string",
			input: `'it\'s' "a"`,
			expected: []Token{
				{Kind: TokenString, Text: `'it\'s'`, Span: Span{0, 7}},
				{Kind: TokenString, Text: `"a"`, Span: Span{8, 11}},
			},
		},
		{
			name:  "block comment and unicode identifier",
			input: "/* skip */ ação $b",
			expected: []Token{
				{Kind: TokenWord, Text: "ação", Span: Span{11, 17}},
				{Kind: TokenPlaceholder, Text: "$b", Span: Span{18, 20}},
			},
		},
		{
			name:  "dollar without identifier",
			input: "$(",
			expected: []Token{
				{Kind: TokenSymbol, Text: "$", Span: Span{0, 1}},
				{Kind: TokenSymbol, Text: "(", Span: Span{1, 2}},
			},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []Token{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		input  string
		offset int
	}{
		{name: "unterminated string", input: `a "abc`, offset: 2},
		{name: "line break inside quote", input: "'a\nb'", offset: 0},
		{name: "unterminated template", input: "x `abc ${y}", offset: 2},
		{name: "unterminated block comment", input: "a /* b", offset: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			var te *TokenizeError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.offset, te.Offset)
		})
	}
}

func TestTemplateKeepsLineBreaks(t *testing.T) {
	t.Parallel()
	tokens, err := Tokenize("`one\n$(GREET x)`")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenTemplate, tokens[0].Kind)
}

func TestOpaqueRegions(t *testing.T) {
	t.Parallel()
	src := "a 'it' b // c\nd `e\nf` g"
	regions := opaqueRegions(src)
	require.Len(t, regions, 3)

	assert.True(t, inRegion(regions, 3))
	assert.False(t, inRegion(regions, 7))
	assert.True(t, inRegion(regions, 10))
	assert.True(t, inRegion(regions, 17))
	assert.False(t, inRegion(regions, len(src)-1))
}
