package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	config, err := LoadConfig(filepath.Join(t.TempDir(), ".dsl.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	config, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigFormats(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: ".dsl.yaml",
			content: `name: game
max_passes: 8
source_ext: .m.js
interpreter: [deno, run]
libraries: [macros/log.yaml]
cache_dir: .cache
debounce: 250ms
`,
		},
		{
			name: "toml",
			file: "dsl.toml",
			content: `name = "game"
max_passes = 8
source_ext = ".m.js"
interpreter = ["deno", "run"]
libraries = ["macros/log.yaml"]
cache_dir = ".cache"
debounce = "250ms"
`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			config, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, "game", config.Name)
			assert.Equal(t, 8, config.MaxPasses)
			assert.Equal(t, ".m.js", config.SourceExt)
			assert.Equal(t, ".js", config.OutputExt, "unset fields keep defaults")
			assert.Equal(t, "macros:", config.Marker)
			assert.Equal(t, []string{"deno", "run"}, config.Interpreter)
			assert.Equal(t, []string{filepath.Join(dir, "macros", "log.yaml")}, config.Libraries)
			assert.Equal(t, filepath.Join(dir, ".cache"), config.CacheDir)
			assert.Equal(t, 250*time.Millisecond, config.Debounce.Duration)
		})
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "bad yaml", file: "a.yaml", content: "name: [", want: "YAML parse error"},
		{name: "bad toml", file: "a.toml", content: "name = ", want: "TOML parse error"},
		{name: "negative passes", file: "a.yaml", content: "max_passes: -1\n", want: "max_passes"},
		{name: "same extensions", file: "a.yaml", content: "source_ext: .js\n", want: "both"},
		{name: "bad constraint", file: "a.yaml", content: "requires: \"not a version\"\n", want: "invalid requires"},
		{name: "unsatisfied constraint", file: "a.yaml", content: "requires: \">= 99.0.0\"\n", want: "running " + Version},
		{name: "bad duration", file: "a.yaml", content: "debounce: soon\n", want: "YAML parse error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequiresSatisfied(t *testing.T) {
	t.Parallel()
	config := DefaultConfig()
	config.Requires = ">= 0.1.0, < 1.0.0"
	assert.NoError(t, config.Validate())
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	t.Parallel()
	for _, name := range []string{".dsl.yaml", "dsl.toml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteDefault(path))

		config, err := LoadConfig(path)
		require.NoError(t, err, name)
		assert.Equal(t, DefaultConfig(), config, name)
	}
}

func TestEngineConfig(t *testing.T) {
	t.Parallel()
	config := DefaultConfig()
	config.Libraries = []string{"a.yaml"}
	config.CacheDir = "cache"

	ec := config.EngineConfig()
	assert.Equal(t, config.Marker, ec.Marker)
	assert.Equal(t, config.MaxPasses, ec.MaxPasses)
	assert.Equal(t, config.SourceExt, ec.SourceExt)
	assert.Equal(t, config.OutputExt, ec.OutputExt)
	assert.Equal(t, []string{"a.yaml"}, ec.Libraries)
	assert.Equal(t, "cache", ec.CacheDir)
}
