// Package yowl is a WIT value-marshaling core with in-process host/guest
// pairings built on wazero.
//
// Values of the primitive WIT kinds (u8 through s64, f32, f64, char) and
// strings are lowered to canonical ABI core values or linear memory on one
// side of a boundary and lifted back on the other. The marshaling rules live
// in canon; a Session in boundary pairs a Go host with a synthesised guest
// core module and performs calls in both directions.
//
//	yowl/          Memory and Allocator interfaces
//	├── kind/      value kinds, WIT names, sizes and flat core types
//	├── canon/     lift/lower, string encodings, NaN-aware equality
//	├── iface/     interface definitions and the .wit signature reader
//	├── guest/     guest core module synthesis
//	├── host/      scalar register and host module
//	├── bindings/  typed clients and implementations per interface
//	├── boundary/  Session: runtime, pairing and calls
//	├── suite/     edge values and roundtrip properties
//	├── bindgen/   build-time wit-bindgen generation stage
//	└── errors/    structured errors
//
// # Quick Start
//
//	s, err := boundary.New(ctx, boundary.WithInterfaces(iface.Numbers()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close(ctx)
//
//	out, err := s.Call(ctx, "test:numbers/test", "roundtrip-u8", uint8(255))
//
// # Thread Safety
//
// A Session is not safe for concurrent use. Calls are synchronous and the
// scalar register is owned by the Session.
package yowl
