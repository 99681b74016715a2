// Package bindgen is the build-time generation stage around the external
// wit-bindgen tool.
//
// A Target names interface-definition inputs (.wit files or directories of
// them), a target language and an output directory. The Generator runs the
// tool once per input through a Runner and reports the files it produced:
//
//	g := bindgen.New(bindgen.WithRunner(&bindgen.ExecRunner{Binary: "wit-bindgen"}))
//	res, err := g.Generate(ctx, bindgen.Target{
//	    Language: "c-sharp",
//	    Inputs:   []string{"wit/numbers.wit"},
//	    OutDir:   "generated",
//	})
//
// ExecRunner spawns the tool as a process. WasmRunner runs a WASI build of
// it under wazero with the input and output directories mounted.
//
// Nothing in this package runs implicitly; the stage runs only when witgen
// (or a go:generate directive invoking it) is executed.
package bindgen
