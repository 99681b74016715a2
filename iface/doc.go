// Package iface describes the interfaces that cross a boundary: functions
// whose params and results are value kinds, their core wasm signatures after
// flattening, and a reader that extracts them from .wit text.
//
// Three interfaces are built in: test:numbers/test, test:strings/test and
// test:many-arguments/test.
package iface
