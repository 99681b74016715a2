package bindgen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yerrors "github.com/Nor2-io/wit-bindgen-yowl/errors"
)

const sampleConfig = `
generator:
  runner: exec
  binary: /opt/wit-bindgen
  timeout: 30s
targets:
  - language: c-sharp
    inputs: [wit/numbers.wit, wit/strings.wit]
    out_dir: generated/cs
  - language: rust
    inputs: [wit]
    out_dir: generated/rs
    world: numbers
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "exec", cfg.Generator.Runner)
	assert.Equal(t, "/opt/wit-bindgen", cfg.Generator.Binary)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, []string{"wit/numbers.wit", "wit/strings.wit"}, cfg.Targets[0].Inputs)
	assert.Equal(t, "numbers", cfg.Targets[1].World)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no targets", "generator: {}\ntargets: []\n"},
		{"unknown language", "targets:\n  - language: cobol\n    inputs: [a.wit]\n    out_dir: out\n"},
		{"missing inputs", "targets:\n  - language: go\n    out_dir: out\n"},
		{"missing out dir", "targets:\n  - language: go\n    inputs: [a.wit]\n"},
		{"unknown runner", "generator:\n  runner: docker\ntargets:\n  - language: go\n    inputs: [a.wit]\n    out_dir: out\n"},
		{"unknown field", "targets:\n  - language: go\n    inputs: [a.wit]\n    out_dir: out\n    extra: true\n"},
		{"not yaml", "targets: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindInvalidConfig})
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "witgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Targets, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNotFound})
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	s := string(schema)
	assert.Contains(t, s, "targets")
	assert.Contains(t, s, "out_dir")
	assert.Contains(t, s, "language")
	assert.Contains(t, s, "wasm")
}
