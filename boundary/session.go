package boundary

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/bindings"
	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/guest"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

// GuestModuleName is the module name the synthesised guest is
// instantiated under.
const GuestModuleName = "guest"

// Direction is the side that issues a Boundary Call.
type Direction uint8

const (
	// HostToGuest calls the guest's native export.
	HostToGuest Direction = iota
	// GuestToHost drives the guest's relay export, so the guest calls the
	// host import and the host implementation answers.
	GuestToHost
)

func (d Direction) String() string {
	if d == GuestToHost {
		return "guest->host"
	}
	return "host->guest"
}

// Directions lists both call directions.
var Directions = []Direction{HostToGuest, GuestToHost}

// Session pairs a Go host with a synthesised guest inside one wazero
// runtime. It owns the scalar register. A Session is not safe for
// concurrent use.
type Session struct {
	runtime  wazero.Runtime
	host     *host.Host
	guest    api.Module
	module   *guest.Module
	ifaces   map[string]*iface.Interface
	order    []*iface.Interface
	log      *zap.Logger
	encoding canon.StringEncoding
	calls    uint64
}

// New creates the runtime, instantiates one host module per interface and
// then the guest importing them.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Interfaces) == 0 {
		cfg.Interfaces = iface.Builtins()
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}
	if cfg.Resolve == nil {
		cfg.Resolve = guest.BuiltinImpl
	}

	s := &Session{
		ifaces:   make(map[string]*iface.Interface, len(cfg.Interfaces)),
		log:      cfg.Logger,
		encoding: cfg.Encoding,
	}
	for _, in := range cfg.Interfaces {
		name := in.QualifiedName()
		if _, dup := s.ifaces[name]; dup {
			return nil, errors.InvalidInput(errors.PhaseGuest, "duplicate interface "+name)
		}
		s.ifaces[name] = in
		s.order = append(s.order, in)
	}

	s.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeConfig(cfg))

	s.host = host.New(nil, cfg.Encoding, cfg.Logger)
	defaults := bindings.Builtin(s.host.Register())
	for _, in := range s.order {
		name := in.QualifiedName()
		s.host.Implement(in, defaults[name])
		if impl, ok := cfg.Implementations[name]; ok {
			s.host.Implement(in, impl)
		}
	}
	for name := range cfg.Implementations {
		if _, ok := s.ifaces[name]; !ok {
			_ = s.runtime.Close(ctx)
			return nil, errors.NotFound(errors.PhaseHost, "interface", name)
		}
	}
	if err := s.host.Instantiate(ctx, s.runtime); err != nil {
		_ = s.runtime.Close(ctx)
		return nil, err
	}

	m, err := guest.Synthesize(s.order, guest.Options{Encoding: cfg.Encoding, Resolve: cfg.Resolve})
	if err != nil {
		_ = s.runtime.Close(ctx)
		return nil, err
	}
	s.module = m

	mod, err := s.runtime.InstantiateWithConfig(ctx, m.Binary, wazero.NewModuleConfig().WithName(GuestModuleName))
	if err != nil {
		_ = s.runtime.Close(ctx)
		return nil, errors.Instantiation(errors.PhaseGuest, GuestModuleName, err)
	}
	s.guest = mod

	s.log.Debug("session ready",
		zap.Int("interfaces", len(s.order)),
		zap.String("encoding", cfg.Encoding.String()),
		zap.String("mode", cfg.Mode.String()),
		zap.Int("guest_bytes", len(m.Binary)))
	return s, nil
}

func runtimeConfig(cfg *Config) wazero.RuntimeConfig {
	var rc wazero.RuntimeConfig
	switch cfg.Mode {
	case ModeCompiler:
		rc = wazero.NewRuntimeConfigCompiler()
	case ModeInterpreter:
		rc = wazero.NewRuntimeConfigInterpreter()
	default:
		rc = wazero.NewRuntimeConfig()
	}
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.CloseOnContextDone {
		rc = rc.WithCloseOnContextDone(true)
	}
	return rc
}

// Call performs a Boundary Call from the host into the guest's native
// export of fn. args are coerced to the canonical Go type of each param.
func (s *Session) Call(ctx context.Context, ifaceName, fn string, args ...any) ([]any, error) {
	return s.call(ctx, HostToGuest, ifaceName, fn, args)
}

// Relay performs a Boundary Call issued by the guest: the guest's relay
// export calls the host import of fn and returns its results.
func (s *Session) Relay(ctx context.Context, ifaceName, fn string, args ...any) ([]any, error) {
	return s.call(ctx, GuestToHost, ifaceName, fn, args)
}

// CallIn performs a Boundary Call in the given direction.
func (s *Session) CallIn(ctx context.Context, dir Direction, ifaceName, fn string, args ...any) ([]any, error) {
	return s.call(ctx, dir, ifaceName, fn, args)
}

// Caller returns a bindings.Caller that calls in the given direction.
func (s *Session) Caller(dir Direction) bindings.Caller {
	return bindings.CallerFunc(func(ctx context.Context, ifaceName, fn string, args ...any) ([]any, error) {
		return s.call(ctx, dir, ifaceName, fn, args)
	})
}

func (s *Session) call(ctx context.Context, dir Direction, ifaceName, fn string, args []any) ([]any, error) {
	if s.guest == nil {
		return nil, errors.NotInitialized(errors.PhaseCall, "session")
	}
	in, ok := s.ifaces[ifaceName]
	if !ok {
		return nil, errors.NotFound(errors.PhaseCall, "interface", ifaceName)
	}
	f, ok := in.Function(fn)
	if !ok {
		return nil, errors.NotFound(errors.PhaseCall, "function", ifaceName+"#"+fn)
	}

	export := guest.ExportName(in, f)
	if dir == GuestToHost {
		export = guest.RelayName(in, f)
	}
	wasmFn := s.guest.ExportedFunction(export)
	if wasmFn == nil {
		return nil, errors.NotFound(errors.PhaseCall, "export", export)
	}

	path := []string{ifaceName, fn}
	opts := canon.ForModule(ctx, s.guest, s.encoding)
	defer s.release(opts, export)

	// a failure left by an aborted call must not be charged to this one
	if stale := s.host.Failure(); stale != nil {
		s.log.Debug("discarding stale host failure", zap.Error(stale))
	}

	flat, err := canon.LowerValues(opts, f.ParamKinds(), args, path)
	if err != nil {
		return nil, err
	}

	s.calls++
	raw, err := wasmFn.Call(ctx, flat...)
	if failure := s.host.Failure(); failure != nil {
		s.log.Debug("call failed on host",
			zap.String("export", export),
			zap.Error(failure))
		return nil, failure
	}
	if err != nil {
		if failed := s.allocFailure(path, err); failed != nil {
			return nil, failed
		}
		return nil, errors.Trap(path, err)
	}

	var results []any
	if canon.Indirect(f.Results) {
		if len(raw) != 1 {
			return nil, errors.New(errors.PhaseLift, errors.KindInvalidInput).
				Path(path...).
				Detail("expected a return pointer, got %d values", len(raw)).
				Build()
		}
		results, err = canon.LoadTuple(opts, f.Results, api.DecodeU32(raw[0]), path)
	} else {
		results, err = canon.LiftValues(opts, f.Results, raw, path)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("boundary call",
		zap.String("direction", dir.String()),
		zap.String("export", export),
		zap.Int("params", len(args)),
		zap.Int("results", len(results)))
	return results, nil
}

// release returns the guest heap to its base once the call's results have
// been lifted out of guest memory.
func (s *Session) release(opts *canon.Options, export string) {
	if opts.Alloc == nil {
		return
	}
	if err := opts.Alloc.Reset(); err != nil {
		s.log.Warn("heap reset failed", zap.String("export", export), zap.Error(err))
	}
}

// allocFailure reports a trap raised by cabi_realloc inside the guest as an
// allocation failure, or nil when the trap had another cause.
func (s *Session) allocFailure(path []string, cause error) *errors.Error {
	size := s.guest.ExportedGlobal(guest.FailedSizeExport)
	align := s.guest.ExportedGlobal(guest.FailedAlignExport)
	if size == nil || align == nil || size.Get() == 0 {
		return nil
	}
	err := errors.AllocationFailed(errors.PhaseCall, uint32(size.Get()), uint32(align.Get()), cause)
	err.Path = path
	return err
}

// Register is the scalar register owned by the session.
func (s *Session) Register() *host.Register { return s.host.Register() }

func (s *Session) Encoding() canon.StringEncoding { return s.encoding }

// Interfaces returns the paired interfaces in instantiation order.
func (s *Session) Interfaces() []*iface.Interface {
	return append([]*iface.Interface(nil), s.order...)
}

// Interface looks up a paired interface by qualified name.
func (s *Session) Interface(name string) (*iface.Interface, bool) {
	in, ok := s.ifaces[name]
	return in, ok
}

// Guest returns the synthesised guest module.
func (s *Session) Guest() *guest.Module { return s.module }

// Calls is the number of Boundary Calls that reached the guest.
func (s *Session) Calls() uint64 { return s.calls }

// HostCalls is the number of host functions the guest invoked.
func (s *Session) HostCalls() uint64 { return s.host.Calls() }

// Close releases the runtime and every module in it.
func (s *Session) Close(ctx context.Context) error {
	if s.runtime == nil {
		return nil
	}
	err := s.runtime.Close(ctx)
	s.runtime = nil
	s.guest = nil
	return err
}
