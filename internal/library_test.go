package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dsljs/dsl/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLibrary = `macros:
  - name: log
    pattern: LOG $msg
    body: console.log($msg);
  - name: pairs
    pattern: "SET [ $( $k : $v ),... ]"
    body: |
      $( $k = $v; )...
`

func TestLoadLibrary(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lib.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLibrary), 0o644))

	defs, err := LoadLibrary(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "LOG", defs[0].Head)
	assert.Equal(t, "SET", defs[1].Head)

	got, err := macro.Expand("LOG 1\nSET [ a: 1, b: 2 ]\n", defs, 0)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1);\na = 1;\nb = 2;\n", got)
}

func TestParseLibraryErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "not yaml", doc: "macros: [", want: "invalid macro library"},
		{name: "bad pattern", doc: "macros:\n  - name: broken\n    pattern: $x\n    body: y\n", want: "macro broken"},
		{name: "unnamed", doc: "macros:\n  - pattern: \"\"\n    body: y\n", want: "macro #1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseLibrary([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadLibraryMissing(t *testing.T) {
	t.Parallel()
	_, err := LoadLibrary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
