// Package kind enumerates the WIT value kinds handled by the marshaling core
// and their canonical ABI properties: memory size and alignment, and the core
// value types each kind flattens to.
package kind
