package bindgen

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
)

// Generator runs targets through a Runner.
type Generator struct {
	runner Runner
	log    *zap.Logger
}

type Option func(*Generator)

func WithRunner(r Runner) Option {
	return func(g *Generator) { g.runner = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// New returns a generator that spawns wit-bindgen from PATH unless a
// runner is given.
func New(opts ...Option) *Generator {
	g := &Generator{log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.runner == nil {
		g.runner = &ExecRunner{Binary: DefaultBinary, Timeout: DefaultTimeout}
	}
	return g
}

// FromConfig builds the generator described by cfg.
func FromConfig(cfg GeneratorConfig, log *zap.Logger) (*Generator, error) {
	var runner Runner
	switch cfg.Runner {
	case "", "exec":
		runner = &ExecRunner{Binary: cfg.Binary, Env: cfg.Env, Timeout: cfg.Timeout}
	case "wasm":
		if cfg.Binary == "" {
			return nil, errors.InvalidInput(errors.PhaseConfig, "wasm runner needs a binary")
		}
		w, err := LoadWasmRunner(cfg.Binary, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		w.Env = cfg.Env
		runner = w
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown runner "+cfg.Runner)
	}
	opts := []Option{WithRunner(runner)}
	if log != nil {
		opts = append(opts, WithLogger(log))
	}
	return New(opts...), nil
}

// Result describes one generated target.
type Result struct {
	Target   Target
	Inputs   []string
	Files    []string
	Outputs  []*Output
	Duration time.Duration
}

// Generate runs the generator once per input of t and moves the files it
// writes into t.OutDir, replacing existing ones. It fails when no file was
// written.
func (g *Generator) Generate(ctx context.Context, t Target) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	inputs, err := ExpandInputs(t.Inputs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(t.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "create "+t.OutDir)
	}
	// The generator writes into an empty staging directory, so everything
	// found there afterwards was produced by this run.
	staging, err := os.MkdirTemp(t.OutDir, ".witgen-")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "stage in "+t.OutDir)
	}
	defer os.RemoveAll(staging)

	start := time.Now()
	res := &Result{Target: t, Inputs: inputs}
	for _, in := range inputs {
		inv := Invocation{
			Language: t.Language,
			Input:    in,
			OutDir:   staging,
			World:    t.World,
			Args:     t.Args,
		}
		g.log.Debug("running generator",
			zap.String("input", in),
			zap.Strings("argv", inv.Argv()))

		out, err := g.runner.Run(ctx, inv)
		if out != nil {
			res.Outputs = append(res.Outputs, out)
		}
		if err != nil {
			g.log.Warn("generator failed", zap.String("input", in), zap.Error(err))
			return res, err
		}
		if out.Stderr != "" {
			g.log.Debug("generator stderr", zap.String("input", in), zap.String("stderr", out.Stderr))
		}
	}
	res.Duration = time.Since(start)

	produced, err := listFiles(staging)
	if err != nil {
		return res, err
	}
	for _, src := range produced {
		rel, err := filepath.Rel(staging, src)
		if err != nil {
			return res, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "place "+src)
		}
		dst := filepath.Join(t.OutDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return res, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "create "+filepath.Dir(dst))
		}
		if err := os.Rename(src, dst); err != nil {
			return res, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "place "+dst)
		}
		res.Files = append(res.Files, dst)
	}
	sort.Strings(res.Files)
	if len(res.Files) == 0 {
		return res, errors.New(errors.PhaseGenerate, errors.KindNoOutput).
			Path(t.OutDir).
			Detail("generator produced no files for %d input(s)", len(inputs)).
			Build()
	}

	g.log.Info("generated bindings",
		zap.String("language", t.Language),
		zap.String("out_dir", t.OutDir),
		zap.Int("files", len(res.Files)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// GenerateAll runs every target of cfg in order and stops at the first
// failure.
func (g *Generator) GenerateAll(ctx context.Context, cfg *Config) ([]*Result, error) {
	var results []*Result
	for _, t := range cfg.Targets {
		res, err := g.Generate(ctx, t)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ExpandInputs replaces directories with the .wit files directly inside
// them, sorted by name.
func ExpandInputs(inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, errors.New(errors.PhaseGenerate, errors.KindNotFound).
				Path(in).Cause(err).Detail("input %q not found", in).Build()
		}
		if !info.IsDir() {
			out = append(out, in)
			continue
		}
		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "read "+in)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".wit") {
				found = append(found, filepath.Join(in, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, errors.New(errors.PhaseGenerate, errors.KindNotFound).
				Path(in).Detail("no .wit files in %s", in).Build()
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "scan "+dir)
	}
	return files, nil
}
