package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

// Handler implements one interface function on the host. args hold the
// canonical Go values of the params; the returned slice must match the
// function's results.
type Handler func(ctx context.Context, args []any) ([]any, error)

// Implementation maps function names of one interface to handlers.
type Implementation map[string]Handler

// Echo returns its arguments unchanged.
func Echo(_ context.Context, args []any) ([]any, error) {
	return args, nil
}

// Host owns the host side of a session: the scalar register and the
// implementations of every interface the guest imports.
type Host struct {
	register *Register
	impls    map[string]Implementation
	order    []*iface.Interface
	failure  error
	log      *zap.Logger
	encoding canon.StringEncoding
	calls    uint64
}

// New creates a host that lifts and lowers strings with enc.
func New(reg *Register, enc canon.StringEncoding, log *zap.Logger) *Host {
	if reg == nil {
		reg = NewRegister()
	}
	if log == nil {
		log = Logger()
	}
	return &Host{
		register: reg,
		impls:    make(map[string]Implementation),
		log:      log,
		encoding: enc,
	}
}

func (h *Host) Register() *Register { return h.register }

// Calls is the number of host functions invoked by the guest so far.
func (h *Host) Calls() uint64 { return h.calls }

// Implement registers impl for in. A later call for the same interface
// replaces handlers by name and keeps the others.
func (h *Host) Implement(in *iface.Interface, impl Implementation) {
	name := in.QualifiedName()
	existing, ok := h.impls[name]
	if !ok {
		existing = make(Implementation)
		h.impls[name] = existing
		h.order = append(h.order, in)
	}
	for fn, handler := range impl {
		existing[fn] = handler
	}
}

// Failure returns and clears the first failure recorded since the last
// call. A recorded failure belongs to the boundary call that was active
// when the host function ran.
func (h *Host) Failure() error {
	err := h.failure
	h.failure = nil
	return err
}

func (h *Host) fail(err error) {
	if h.failure == nil {
		h.failure = err
	}
	// wazero recovers the panic and fails the guest call with it
	panic(err)
}

// Instantiate builds one wazero host module per implemented interface,
// named by the interface's qualified name. Functions without a handler
// fail when called.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) error {
	for _, in := range h.order {
		b := r.NewHostModuleBuilder(in.QualifiedName())
		impl := h.impls[in.QualifiedName()]
		for _, f := range in.Functions {
			sig := f.ImportSignature()
			fn := &hostFunc{host: h, in: in, f: f, handler: impl[f.Name]}
			b.NewFunctionBuilder().
				WithGoModuleFunction(api.GoModuleFunc(fn.call), sig.Params, sig.Results).
				WithParameterNames(paramNames(f, sig)...).
				Export(f.Name)
		}
		if _, err := b.Instantiate(ctx); err != nil {
			return errors.Instantiation(errors.PhaseHost, "host module "+in.QualifiedName(), err)
		}
		h.log.Debug("host module instantiated",
			zap.String("interface", in.QualifiedName()),
			zap.Int("functions", len(in.Functions)))
	}
	return nil
}

type hostFunc struct {
	host    *Host
	in      *iface.Interface
	f       *iface.Function
	handler Handler
}

func (hf *hostFunc) call(ctx context.Context, mod api.Module, stack []uint64) {
	h := hf.host
	h.calls++
	path := []string{hf.in.QualifiedName(), hf.f.Name}

	if hf.handler == nil {
		h.fail(errors.NotFound(errors.PhaseHost, "handler", hf.in.QualifiedName()+"#"+hf.f.Name))
	}
	if mod == nil || mod.Memory() == nil {
		h.fail(errors.NotInitialized(errors.PhaseHost, "caller memory"))
	}

	opts := canon.ForModule(ctx, mod, h.encoding)
	params := hf.f.ParamKinds()
	nflat := len(hf.f.ExportSignature().Params)

	args, err := canon.LiftValues(opts, params, stack[:nflat], path)
	if err != nil {
		h.log.Warn("lift params failed", zap.Strings("path", path), zap.Error(err))
		h.fail(err)
	}

	results, err := hf.handler(ctx, args)
	if err != nil {
		h.log.Debug("handler failed", zap.Strings("path", path), zap.Error(err))
		h.fail(err)
	}
	if len(results) != len(hf.f.Results) {
		h.fail(errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path(path...).
			Detail("handler returned %d results, want %d", len(results), len(hf.f.Results)).
			Build())
	}

	if canon.Indirect(hf.f.Results) {
		retptr := api.DecodeU32(stack[nflat])
		if err := canon.StoreTuple(opts, hf.f.Results, retptr, results, path); err != nil {
			h.log.Warn("store results failed", zap.Strings("path", path), zap.Uint32("retptr", retptr), zap.Error(err))
			h.fail(err)
		}
		return
	}

	flat, err := canon.LowerValues(opts, hf.f.Results, results, path)
	if err != nil {
		h.log.Warn("lower results failed", zap.Strings("path", path), zap.Error(err))
		h.fail(err)
	}
	copy(stack, flat)
}

func paramNames(f *iface.Function, sig iface.Signature) []string {
	names := make([]string, 0, len(sig.Params))
	if canon.Spilled(f.ParamKinds()) {
		names = append(names, "params")
	} else {
		for _, p := range f.Params {
			if p.Kind.FlatCount() == 1 {
				names = append(names, p.Name)
				continue
			}
			for i := 0; i < p.Kind.FlatCount(); i++ {
				names = append(names, fmt.Sprintf("%s.%d", p.Name, i))
			}
		}
	}
	for len(names) < len(sig.Params) {
		names = append(names, "retptr")
	}
	return names
}
