// Package guest synthesises the core wasm module that plays the guest side
// of a boundary.
//
// For every function f of an interface I the module imports I.f from the
// host module named by I's qualified name and exports two functions:
//
//	I#f        native implementation (echo, empty, const or forward)
//	relay:I#f  always forwards to the host import
//
// The module also exports its memory and a cabi_realloc bump allocator.
// Results that do not fit in one flat value are returned through a fixed
// return area.
package guest
