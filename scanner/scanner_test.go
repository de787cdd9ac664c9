package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestProjectScanner(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	writeTree(t, tempDir, map[string]string{
		"main.dsl.js":                 "GREET x",
		"plain.js":                    "say(x)",
		"notes.txt":                   "This is a text file",
		"subdir/scene.dsl.js":         "THREE scene.Scene()",
		"node_modules/pkg/lib.dsl.js": "ignored",
		"dist/main.dsl.js":            "excluded",
	})

	scannedFiles, err := New(tempDir, ".dsl.js").Exclude(filepath.Join(tempDir, "dist")).Scan()
	require.NoError(t, err)

	require.Len(t, scannedFiles, 2)
	assert.Equal(t, filepath.Join(tempDir, "main.dsl.js"), scannedFiles[0].Path)
	assert.Equal(t, filepath.Join(tempDir, "subdir", "scene.dsl.js"), scannedFiles[1].Path)
	for _, file := range scannedFiles {
		assert.Greater(t, file.Size, int64(0), "File size should be greater than 0")
	}
}

func TestScannerSuffixes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		suffixes []string
		path     string
		expected bool
	}{
		{name: "multi dot suffix", suffixes: []string{".dsl.js"}, path: "a/b.dsl.js", expected: true},
		{name: "plain js", suffixes: []string{".dsl.js"}, path: "a/b.js", expected: false},
		{name: "suffix alone", suffixes: []string{".dsl.js"}, path: "a/.dsl.js", expected: false},
		{name: "second suffix", suffixes: []string{".dsl.js", ".dsljs"}, path: "x.dsljs", expected: true},
		{name: "no suffixes", path: "anything.txt", expected: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, New(".", tt.suffixes...).isTargetFile(tt.path))
		})
	}
}

func TestScannerMissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "missing"), ".dsl.js").Scan()
	assert.Error(t, err)
}
