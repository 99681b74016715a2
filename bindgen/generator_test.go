package bindgen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yerrors "github.com/Nor2-io/wit-bindgen-yowl/errors"
)

// fakeGenerator writes a shell script standing in for wit-bindgen.
func fakeGenerator(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake generator needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "wit-bindgen")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// writesStub emits one file per input, named after the input and language.
const writesStub = `lang="$1"; out="$3"
for last; do :; done
mkdir -p "$out"
echo "// $lang bindings for $last" > "$out/$(basename "$last" .wit).$lang.txt"
echo "generated $last"`

func witInputs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("package test:x;\n"), 0o644))
	}
	return dir
}

func TestInvocationArgv(t *testing.T) {
	inv := Invocation{Language: "c-sharp", Input: "wit/numbers.wit", OutDir: "gen"}
	assert.Equal(t, []string{"c-sharp", "--out-dir", "gen", "wit/numbers.wit"}, inv.Argv())

	inv.World = "numbers"
	inv.Args = []string{"--runtime", "native"}
	assert.Equal(t,
		[]string{"c-sharp", "--out-dir", "gen", "--world", "numbers", "--runtime", "native", "wit/numbers.wit"},
		inv.Argv())

	g := guestInvocation(Invocation{Language: "go", Input: "/abs/path/numbers.wit", OutDir: "/tmp/out"})
	assert.Equal(t, "/in/numbers.wit", g.Input)
	assert.Equal(t, "/out", g.OutDir)
}

func TestGenerateWithExecRunner(t *testing.T) {
	bin := fakeGenerator(t, writesStub)
	in := witInputs(t, "numbers.wit", "strings.wit", "notes.txt")
	out := filepath.Join(t.TempDir(), "gen")

	g := New(WithRunner(&ExecRunner{Binary: bin}))
	res, err := g.Generate(context.Background(), Target{
		Language: "c-sharp",
		Inputs:   []string{in},
		OutDir:   out,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(in, "numbers.wit"), filepath.Join(in, "strings.wit")}, res.Inputs)
	assert.Equal(t, []string{
		filepath.Join(out, "numbers.c-sharp.txt"),
		filepath.Join(out, "strings.c-sharp.txt"),
	}, res.Files)
	require.Len(t, res.Outputs, 2)
	assert.Contains(t, res.Outputs[0].Stdout, "generated")

	data, err := os.ReadFile(filepath.Join(out, "numbers.c-sharp.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "c-sharp bindings for")
}

func TestRegenerateWithUnchangedTimestamps(t *testing.T) {
	// same content and mtime on every run, as on a filesystem with coarse timestamps
	bin := fakeGenerator(t, writesStub+"\n"+`touch -t 200001020304 "$out/$(basename "$last" .wit).$lang.txt"`)
	in := witInputs(t, "numbers.wit")
	out := filepath.Join(t.TempDir(), "gen")

	g := New(WithRunner(&ExecRunner{Binary: bin}))
	target := Target{Language: "go", Inputs: []string{in}, OutDir: out}
	for run := 1; run <= 2; run++ {
		res, err := g.Generate(context.Background(), target)
		require.NoError(t, err, "run %d", run)
		assert.Equal(t, []string{filepath.Join(out, "numbers.go.txt")}, res.Files, "run %d", run)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "numbers.go.txt", entries[0].Name())
}

func TestGenerateFailures(t *testing.T) {
	in := witInputs(t, "numbers.wit")
	input := filepath.Join(in, "numbers.wit")

	tests := []struct {
		name   string
		runner Runner
		kind   yerrors.Kind
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing binary",
			runner: &ExecRunner{Binary: filepath.Join(t.TempDir(), "no-such-generator")},
			kind:   yerrors.KindNotFound,
		},
		{
			name:   "non-zero exit",
			runner: &ExecRunner{Binary: fakeGenerator(t, `echo "error: unknown type" >&2; exit 3`)},
			kind:   yerrors.KindProcess,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "code 3")
				assert.Contains(t, err.Error(), "unknown type")
			},
		},
		{
			name:   "timeout",
			runner: &ExecRunner{Binary: fakeGenerator(t, "exec sleep 5"), Timeout: 100 * time.Millisecond},
			kind:   yerrors.KindTimeout,
		},
		{
			name:   "no output",
			runner: &ExecRunner{Binary: fakeGenerator(t, "exit 0")},
			kind:   yerrors.KindNoOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(WithRunner(tt.runner))
			_, err := g.Generate(context.Background(), Target{
				Language: "go",
				Inputs:   []string{input},
				OutDir:   filepath.Join(t.TempDir(), "gen"),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, &yerrors.Error{Kind: tt.kind})
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestGenerateRejectsBadTargets(t *testing.T) {
	g := New(WithRunner(&ExecRunner{Binary: "unused"}))

	_, err := g.Generate(context.Background(), Target{Language: "go", OutDir: "x"})
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindInvalidConfig})

	_, err = g.Generate(context.Background(), Target{
		Language: "go",
		Inputs:   []string{filepath.Join(t.TempDir(), "missing.wit")},
		OutDir:   t.TempDir(),
	})
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNotFound})

	_, err = g.Generate(context.Background(), Target{
		Language: "go",
		Inputs:   []string{witInputs(t, "readme.md")},
		OutDir:   t.TempDir(),
	})
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNotFound})
}

func TestGenerateAll(t *testing.T) {
	bin := fakeGenerator(t, writesStub)
	in := witInputs(t, "numbers.wit")
	base := t.TempDir()

	cfg := &Config{Targets: []Target{
		{Language: "c-sharp", Inputs: []string{in}, OutDir: filepath.Join(base, "cs")},
		{Language: "rust", Inputs: []string{in}, OutDir: filepath.Join(base, "rs")},
	}}
	results, err := New(WithRunner(&ExecRunner{Binary: bin})).GenerateAll(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, strings.HasSuffix(results[1].Files[0], "numbers.rust.txt"))
}

func TestFromConfig(t *testing.T) {
	g, err := FromConfig(GeneratorConfig{Binary: "wit-bindgen", Timeout: time.Second}, nil)
	require.NoError(t, err)
	r, ok := g.runner.(*ExecRunner)
	require.True(t, ok)
	assert.Equal(t, time.Second, r.Timeout)

	_, err = FromConfig(GeneratorConfig{Runner: "wasm"}, nil)
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindInvalidInput})

	_, err = FromConfig(GeneratorConfig{Runner: "wasm", Binary: filepath.Join(t.TempDir(), "gen.wasm")}, nil)
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNotFound})
}

// exitModule is a WASI command whose _start calls proc_exit(code).
func exitModule(code byte) []byte {
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	// types: (i32) -> () and () -> ()
	wasm = append(wasm, 0x01, 0x08, 0x02, 0x60, 0x01, 0x7f, 0x00, 0x60, 0x00, 0x00)
	// import wasi_snapshot_preview1.proc_exit
	imp := []byte{0x01, 22}
	imp = append(imp, "wasi_snapshot_preview1"...)
	imp = append(imp, 9)
	imp = append(imp, "proc_exit"...)
	imp = append(imp, 0x00, 0x00)
	wasm = append(wasm, 0x02, byte(len(imp)))
	wasm = append(wasm, imp...)
	wasm = append(wasm, 0x03, 0x02, 0x01, 0x01)
	exp := []byte{0x01, 6}
	exp = append(exp, "_start"...)
	exp = append(exp, 0x00, 0x01)
	wasm = append(wasm, 0x07, byte(len(exp)))
	wasm = append(wasm, exp...)
	// i32.const code; call 0; end
	wasm = append(wasm, 0x0a, 0x08, 0x01, 0x06, 0x00, 0x41, code, 0x10, 0x00, 0x0b)
	return wasm
}

func TestWasmRunner(t *testing.T) {
	in := witInputs(t, "numbers.wit")
	inv := Invocation{Language: "go", Input: filepath.Join(in, "numbers.wit"), OutDir: t.TempDir()}

	out, err := (&WasmRunner{Module: exitModule(0)}).Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)

	out, err = (&WasmRunner{Module: exitModule(3)}).Run(context.Background(), inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindProcess})
	assert.Equal(t, 3, out.ExitCode)

	_, err = (&WasmRunner{}).Run(context.Background(), inv)
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNotInitialized})

	_, err = New(WithRunner(&WasmRunner{Module: exitModule(0)})).Generate(context.Background(), Target{
		Language: "go", Inputs: []string{inv.Input}, OutDir: inv.OutDir,
	})
	assert.ErrorIs(t, err, &yerrors.Error{Kind: yerrors.KindNoOutput})
}
