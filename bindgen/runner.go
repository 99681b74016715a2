package bindgen

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
)

// DefaultTimeout bounds one generator invocation.
const DefaultTimeout = time.Minute

// DefaultBinary is the generator looked up on PATH.
const DefaultBinary = "wit-bindgen"

// Invocation is one run of the generator over one input.
type Invocation struct {
	Language string
	Input    string
	OutDir   string
	World    string
	Args     []string
}

// Argv returns the generator arguments, without the program name:
// <language> --out-dir <dir> [--world <world>] [args...] <input>.
func (inv Invocation) Argv() []string {
	argv := []string{inv.Language, "--out-dir", inv.OutDir}
	if inv.World != "" {
		argv = append(argv, "--world", inv.World)
	}
	argv = append(argv, inv.Args...)
	return append(argv, inv.Input)
}

// Output is what one invocation printed.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes the generator.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Output, error)
}

// ExecRunner spawns the generator as a process.
type ExecRunner struct {
	Binary  string
	Env     []string
	Timeout time.Duration
}

func (r *ExecRunner) binary() string {
	if r.Binary == "" {
		return DefaultBinary
	}
	return r.Binary
}

func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	path, err := exec.LookPath(r.binary())
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindNotFound).
			Cause(err).
			Detail("generator binary %q not found", r.binary()).
			Build()
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: running the configured generator is the purpose of this runner
	cmd := exec.CommandContext(ctx, path, inv.Argv()...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return out, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		return out, timeoutError(inv, timeout, err)
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, exitError(inv, out)
	}
	return out, errors.New(errors.PhaseGenerate, errors.KindProcess).
		Path(inv.Input).
		Cause(err).
		Detail("start %s", path).
		Build()
}

// WasmRunner runs a WASI build of the generator under wazero. The input's
// directory is mounted read-only at /in and the output directory at /out.
type WasmRunner struct {
	// Module is the generator's WASI module.
	Module  []byte
	Env     []string
	Timeout time.Duration
}

// LoadWasmRunner reads the WASI module at path.
func LoadWasmRunner(path string, timeout time.Duration) (*WasmRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindNotFound).
			Cause(err).
			Detail("generator module %q not found", path).
			Build()
	}
	return &WasmRunner{Module: data, Timeout: timeout}, nil
}

const (
	wasmInputDir  = "/in"
	wasmOutputDir = "/out"
)

// guestInvocation maps inv onto the mounted guest paths.
func guestInvocation(inv Invocation) Invocation {
	g := inv
	g.Input = wasmInputDir + "/" + filepath.Base(inv.Input)
	g.OutDir = wasmOutputDir
	return g
}

func (r *WasmRunner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	if len(r.Module) == 0 {
		return nil, errors.NotInitialized(errors.PhaseGenerate, "generator module")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Instantiation(errors.PhaseGenerate, "wasi", err)
	}

	inDir, err := filepath.Abs(filepath.Dir(inv.Input))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "input path")
	}
	outDir, err := filepath.Abs(inv.OutDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "output path")
	}

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName(DefaultBinary).
		WithArgs(append([]string{DefaultBinary}, guestInvocation(inv).Argv()...)...).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithFSConfig(wazero.NewFSConfig().
			WithReadOnlyDirMount(inDir, wasmInputDir).
			WithDirMount(outDir, wasmOutputDir))
	for _, kv := range r.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			cfg = cfg.WithEnv(k, v)
		}
	}

	start := time.Now()
	_, err = rt.InstantiateWithConfig(ctx, r.Module, cfg)
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return out, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		return out, timeoutError(inv, timeout, err)
	}
	var exitErr *sys.ExitError
	if stderrors.As(err, &exitErr) {
		out.ExitCode = int(exitErr.ExitCode())
		return out, exitError(inv, out)
	}
	return out, errors.Instantiation(errors.PhaseGenerate, "generator module", err)
}

func timeoutError(inv Invocation, timeout time.Duration, cause error) *errors.Error {
	return errors.New(errors.PhaseGenerate, errors.KindTimeout).
		Path(inv.Input).
		Cause(cause).
		Detail("generator did not finish within %s", timeout).
		Build()
}

func exitError(inv Invocation, out *Output) *errors.Error {
	detail := strings.TrimSpace(out.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(out.Stdout)
	}
	return errors.New(errors.PhaseGenerate, errors.KindProcess).
		Path(inv.Input).
		Value(out.ExitCode).
		Detail("generator exited with code %d: %s", out.ExitCode, detail).
		Build()
}
