// Package suite holds the edge-value tables and the runner that checks the
// roundtrip properties over a boundary.Session.
//
// The runner checks, in both call directions and under every configured
// string encoding:
//
//   - integer, float and char roundtrips over their edge values
//   - return-empty yields ""
//   - text roundtrips compare equal as scalar value sequences
//   - the scalar register observes the most recent write
//   - repeating a roundtrip yields the same output
//
// plus the fixed-text and many-arguments checks of the built-in interfaces.
package suite
