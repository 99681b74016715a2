package bindgen

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
)

// validate is shared; building a validator is expensive.
var validate = validator.New()

// Config is the witgen configuration file.
type Config struct {
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
	Targets   []Target        `yaml:"targets" json:"targets" validate:"required,min=1,dive"`
}

// GeneratorConfig selects and configures the Runner.
type GeneratorConfig struct {
	// Runner is "exec" (default) or "wasm".
	Runner string `yaml:"runner,omitempty" json:"runner,omitempty" validate:"omitempty,oneof=exec wasm" jsonschema:"enum=exec,enum=wasm"`
	// Binary is the wit-bindgen executable, or the WASI module for the
	// wasm runner. Defaults to "wit-bindgen" on PATH.
	Binary string `yaml:"binary,omitempty" json:"binary,omitempty"`
	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"gte=0"`
	Env     []string      `yaml:"env,omitempty" json:"env,omitempty"`
}

// Target is one generation job.
type Target struct {
	Language string   `yaml:"language" json:"language" validate:"required,oneof=c cpp c-sharp csharp go markdown moonbit rust teavm-java"`
	Inputs   []string `yaml:"inputs" json:"inputs" validate:"required,min=1,dive,required"`
	OutDir   string   `yaml:"out_dir" json:"out_dir" validate:"required"`
	World    string   `yaml:"world,omitempty" json:"world,omitempty"`
	Args     []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// ParseConfig decodes and validates a YAML config. Unknown fields are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config "+path)
	}
	return ParseConfig(data)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "config validation failed")
	}
	return nil
}

// Validate checks a single target.
func (t Target) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "invalid target")
	}
	return nil
}

// Schema returns the JSON schema of the config file.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Config{})
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "marshal schema")
	}
	return out, nil
}
