package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Nor2-io/wit-bindgen-yowl/boundary"
	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
	"github.com/Nor2-io/wit-bindgen-yowl/suite"
)

func main() {
	var (
		verbose     = flag.Bool("v", false, "Verbose logging")
		encoding    = flag.String("encoding", "all", "String encoding: utf8, utf16, latin1+utf16 or all")
		direction   = flag.String("direction", "both", "Call direction: host, guest or both")
		properties  = flag.String("properties", "", "Comma-separated properties to check (default all)")
		witFile     = flag.String("wit", "", "Additional .wit file whose interfaces are paired with echo implementations")
		ifaceName   = flag.String("iface", iface.NumbersName, "Interface for -call")
		callFunc    = flag.String("call", "", "Call one function with the remaining arguments and print the result")
		list        = flag.Bool("list", false, "List paired interfaces and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	encs, err := parseEncodings(*encoding)
	if err != nil {
		fail(err)
	}
	dirs, err := parseDirections(*direction)
	if err != nil {
		fail(err)
	}
	extra, err := loadExtra(*witFile)
	if err != nil {
		fail(err)
	}

	switch {
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fail(fmt.Errorf("interactive mode needs a terminal"))
		}
		err = runInteractive(sessionOptions(encs[0], extra, log))
	case *list:
		err = listInterfaces(sessionOptions(encs[0], extra, log))
	case *callFunc != "":
		err = callOnce(sessionOptions(encs[0], extra, log), dirs, *ifaceName, *callFunc, flag.Args())
	default:
		err = runSuite(encs, dirs, *properties, extra, log)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func parseEncodings(s string) ([]canon.StringEncoding, error) {
	if s == "all" || s == "" {
		return canon.Encodings, nil
	}
	var out []canon.StringEncoding
	for _, name := range strings.Split(s, ",") {
		enc, ok := canon.ParseEncoding(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown encoding %q", name)
		}
		out = append(out, enc)
	}
	return out, nil
}

func parseDirections(s string) ([]boundary.Direction, error) {
	switch s {
	case "both", "":
		return boundary.Directions, nil
	case "host":
		return []boundary.Direction{boundary.HostToGuest}, nil
	case "guest":
		return []boundary.Direction{boundary.GuestToHost}, nil
	}
	return nil, fmt.Errorf("unknown direction %q", s)
}

// loadExtra reads the interfaces of a .wit file.
func loadExtra(path string) ([]*iface.Interface, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := iface.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Interfaces, nil
}

// echoImplementation answers every function whose results mirror its params.
func echoImplementation(in *iface.Interface) host.Implementation {
	impl := make(host.Implementation)
	for _, f := range in.Functions {
		kinds := f.ParamKinds()
		if len(kinds) != len(f.Results) {
			continue
		}
		same := true
		for i := range kinds {
			if kinds[i] != f.Results[i] {
				same = false
				break
			}
		}
		if same {
			impl[f.Name] = host.Echo
		}
	}
	return impl
}

func sessionOptions(enc canon.StringEncoding, extra []*iface.Interface, log *zap.Logger) []boundary.Option {
	opts := []boundary.Option{
		boundary.WithEncoding(enc),
		boundary.WithLogger(log),
		boundary.WithInterfaces(iface.Builtins()...),
	}
	for _, in := range extra {
		opts = append(opts,
			boundary.WithInterfaces(in),
			boundary.WithImplementation(in.QualifiedName(), echoImplementation(in)))
	}
	return opts
}

func runSuite(encs []canon.StringEncoding, dirs []boundary.Direction, props string, extra []*iface.Interface, log *zap.Logger) error {
	ctx := context.Background()

	opts := []suite.Option{
		suite.WithEncodings(encs...),
		suite.WithDirections(dirs...),
		suite.WithLogger(log),
	}
	for _, in := range extra {
		opts = append(opts, suite.WithSessionOptions(
			boundary.WithInterfaces(in),
			boundary.WithImplementation(in.QualifiedName(), echoImplementation(in))))
	}
	if len(extra) > 0 {
		opts = append(opts, suite.WithSessionOptions(boundary.WithInterfaces(iface.Builtins()...)))
	}
	if props != "" {
		var selected []suite.Property
		for _, p := range strings.Split(props, ",") {
			selected = append(selected, suite.Property(strings.TrimSpace(p)))
		}
		opts = append(opts, suite.WithProperties(selected...))
	}

	report, err := suite.NewRunner(opts...).Run(ctx)
	if err != nil {
		return err
	}

	for _, f := range report.Failures() {
		fmt.Printf("FAIL %-13s %-12s %-16s %-20s %v\n", f.Encoding, f.Direction, f.Property, f.Name, f.Err)
	}
	fmt.Printf("%d/%d checks passed in %s\n", report.Passed(), len(report.Results), report.Duration)
	if !report.OK() {
		return fmt.Errorf("%d checks failed", len(report.Failures()))
	}
	return nil
}

func listInterfaces(opts []boundary.Option) error {
	ctx := context.Background()
	s, err := boundary.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	for _, in := range s.Interfaces() {
		fmt.Printf("%s\n", in.QualifiedName())
		for _, f := range in.Functions {
			fmt.Printf("  %s\n", f)
		}
	}

	g := s.Guest()
	fmt.Printf("\nguest: %d bytes, %d exports, return area %d bytes, heap at %d\n",
		len(g.Binary), len(g.Exports), g.ReturnAreaSize, g.HeapBase)
	return nil
}

func callOnce(opts []boundary.Option, dirs []boundary.Direction, ifaceName, fn string, args []string) error {
	ctx := context.Background()
	s, err := boundary.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	in, ok := s.Interface(ifaceName)
	if !ok {
		return fmt.Errorf("interface %q not paired", ifaceName)
	}
	f, ok := in.Function(fn)
	if !ok {
		return fmt.Errorf("function %q not found in %s", fn, ifaceName)
	}
	if len(args) != len(f.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", f, len(f.Params), len(args))
	}

	values := make([]any, len(args))
	for i, p := range f.Params {
		v, err := canon.ParseValue(p.Kind, args[i], []string{ifaceName, fn, p.Name})
		if err != nil {
			return err
		}
		values[i] = v
	}

	for _, dir := range dirs {
		res, err := s.CallIn(ctx, dir, ifaceName, fn, values...)
		if err != nil {
			return fmt.Errorf("%s: %w", dir, err)
		}
		fmt.Printf("%-12s %s\n", dir, formatResults(f.Results, res))
	}
	fmt.Printf("%d boundary calls, %d host calls\n", s.Calls(), s.HostCalls())
	return nil
}

func formatResults(kinds []kind.Kind, res []any) string {
	switch len(res) {
	case 0:
		return "()"
	case 1:
		return formatValue(kinds[0], res[0])
	}
	parts := make([]string, len(res))
	for i, v := range res {
		parts[i] = formatValue(kinds[i], v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatValue(k kind.Kind, v any) string {
	switch k {
	case kind.String:
		return fmt.Sprintf("%q", v)
	case kind.Char:
		if r, ok := v.(rune); ok {
			return fmt.Sprintf("%q (U+%04X)", r, r)
		}
	}
	return fmt.Sprintf("%v", v)
}
