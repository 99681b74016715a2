// Package host implements the Go side of a boundary: the scalar register
// and wazero host modules whose functions lift their arguments out of the
// calling guest, run a Handler and lower the results back.
//
// A handler error, or any marshaling failure, is recorded on the Host and
// fails the guest call that triggered it.
package host
