package boundary

import (
	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/guest"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

// Mode selects the wazero execution engine.
type Mode uint8

const (
	// ModeAuto uses the compiler where wazero supports it.
	ModeAuto Mode = iota
	ModeCompiler
	ModeInterpreter
)

func (m Mode) String() string {
	switch m {
	case ModeCompiler:
		return "compiler"
	case ModeInterpreter:
		return "interpreter"
	}
	return "auto"
}

// Config holds Session configuration. Use the With* options to build it.
type Config struct {
	Logger *zap.Logger

	// Interfaces paired by the session. Defaults to iface.Builtins().
	Interfaces []*iface.Interface

	// Implementations keyed by qualified interface name. They are merged
	// over the built-in defaults by function name.
	Implementations map[string]host.Implementation

	// Resolve picks the native implementation of each guest export.
	// Defaults to guest.BuiltinImpl.
	Resolve guest.Resolver

	Encoding canon.StringEncoding
	Mode     Mode

	// MemoryLimitPages caps guest memory in 64KiB pages. 0 keeps the
	// wazero default.
	MemoryLimitPages uint32

	CloseOnContextDone bool
}

type Option func(*Config)

func WithInterfaces(ifaces ...*iface.Interface) Option {
	return func(c *Config) { c.Interfaces = append(c.Interfaces, ifaces...) }
}

func WithEncoding(enc canon.StringEncoding) Option {
	return func(c *Config) { c.Encoding = enc }
}

func WithCompiler() Option {
	return func(c *Config) { c.Mode = ModeCompiler }
}

func WithInterpreter() Option {
	return func(c *Config) { c.Mode = ModeInterpreter }
}

func WithMemoryLimitPages(pages uint32) Option {
	return func(c *Config) { c.MemoryLimitPages = pages }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithCloseOnContextDone makes guest calls observe context cancellation.
func WithCloseOnContextDone() Option {
	return func(c *Config) { c.CloseOnContextDone = true }
}

// WithImplementation serves impl for the interface with the given qualified
// name, replacing default handlers of the same function names.
func WithImplementation(name string, impl host.Implementation) Option {
	return func(c *Config) {
		if c.Implementations == nil {
			c.Implementations = make(map[string]host.Implementation)
		}
		existing := c.Implementations[name]
		if existing == nil {
			existing = make(host.Implementation)
			c.Implementations[name] = existing
		}
		for fn, h := range impl {
			existing[fn] = h
		}
	}
}

func WithResolver(r guest.Resolver) Option {
	return func(c *Config) { c.Resolve = r }
}
