// Command witgen runs the external WIT binding generator over a set of
// targets. It runs only when invoked, typically from go:generate.
//
//	witgen -config witgen.yaml
//	witgen -lang c-sharp -out gen ./wit
//	witgen schema
//	witgen builtins ./wit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/bindgen"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

func main() {
	var (
		verbose    = flag.Bool("v", false, "Verbose logging")
		configPath = flag.String("config", "", "YAML config file with generator settings and targets")
		lang       = flag.String("lang", "", "Target language for a single target (e.g. c-sharp, rust, go)")
		outDir     = flag.String("out", "", "Output directory for a single target")
		world      = flag.String("world", "", "World to generate for")
		runner     = flag.String("runner", "exec", "Generator runner: exec or wasm")
		binary     = flag.String("binary", "", "Generator executable, or WASI module for -runner wasm")
		timeout    = flag.Duration("timeout", bindgen.DefaultTimeout, "Timeout per invocation")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [inputs...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s schema\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s builtins <dir>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fail(err)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	var err error
	switch flag.Arg(0) {
	case "schema":
		err = printSchema()
	case "builtins":
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = writeBuiltins(flag.Arg(1))
	default:
		var cfg *bindgen.Config
		if *configPath != "" {
			cfg, err = bindgen.LoadConfig(*configPath)
		} else {
			cfg, err = singleTarget(*lang, *outDir, *world, flag.Args())
		}
		if err != nil {
			break
		}
		if *binary != "" {
			cfg.Generator.Binary = *binary
		}
		if *configPath == "" || cfg.Generator.Runner == "" {
			cfg.Generator.Runner = *runner
		}
		if cfg.Generator.Timeout == 0 {
			cfg.Generator.Timeout = *timeout
		}
		err = generate(cfg, log)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func singleTarget(lang, out, world string, inputs []string) (*bindgen.Config, error) {
	if lang == "" || out == "" || len(inputs) == 0 {
		return nil, fmt.Errorf("need -config, or -lang, -out and at least one input")
	}
	cfg := &bindgen.Config{
		Targets: []bindgen.Target{{
			Language: lang,
			Inputs:   inputs,
			OutDir:   out,
			World:    world,
		}},
	}
	return cfg, cfg.Validate()
}

func generate(cfg *bindgen.Config, log *zap.Logger) error {
	gen, err := bindgen.FromConfig(cfg.Generator, log)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := gen.GenerateAll(context.Background(), cfg)
	for _, res := range results {
		fmt.Printf("%s: %d files in %s (%s)\n", res.Target.Language, len(res.Files), res.Target.OutDir, res.Duration.Round(time.Millisecond))
		for _, f := range res.Files {
			fmt.Printf("  %s\n", f)
		}
	}
	if err != nil {
		return err
	}
	log.Debug("generation finished", zap.Int("targets", len(results)), zap.Duration("duration", time.Since(start)))
	return nil
}

func printSchema() error {
	data, err := bindgen.Schema()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func writeBuiltins(dir string) error {
	sources, err := iface.BuiltinSources()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range iface.BuiltinNames() {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, sources[name], 0o644); err != nil {
			return err
		}
		fmt.Println(strings.TrimPrefix(path, "./"))
	}
	return nil
}
