package bindings

import (
	"context"
	"fmt"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
)

// Caller performs one Boundary Call of function fn on the interface with the
// given qualified name.
type Caller interface {
	Call(ctx context.Context, iface, fn string, args ...any) ([]any, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, iface, fn string, args ...any) ([]any, error)

func (f CallerFunc) Call(ctx context.Context, iface, fn string, args ...any) ([]any, error) {
	return f(ctx, iface, fn, args...)
}

// result extracts the single result of a call as T.
func result[T any](res []any, path ...string) (T, error) {
	var zero T
	if len(res) != 1 {
		return zero, errors.New(errors.PhaseLift, errors.KindInvalidInput).
			Path(path...).
			Detail("expected 1 result, got %d", len(res)).
			Build()
	}
	v, ok := res[0].(T)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseLift, path, fmt.Sprintf("%T", res[0]), fmt.Sprintf("%T", zero))
	}
	return v, nil
}

func call1[T any](ctx context.Context, c Caller, iface, fn string, args ...any) (T, error) {
	res, err := c.Call(ctx, iface, fn, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return result[T](res, iface, fn)
}

func call0(ctx context.Context, c Caller, iface, fn string, args ...any) error {
	res, err := c.Call(ctx, iface, fn, args...)
	if err != nil {
		return err
	}
	if len(res) != 0 {
		return errors.New(errors.PhaseLift, errors.KindInvalidInput).
			Path(iface, fn).
			Detail("expected no results, got %d", len(res)).
			Build()
	}
	return nil
}

// arg extracts args[i] as T on the implementing side.
func arg[T any](args []any, i int, path ...string) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path(path...).
			Detail("missing argument %d", i).
			Build()
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseHost, path, fmt.Sprintf("%T", args[i]), fmt.Sprintf("%T", zero))
	}
	return v, nil
}

// unary adapts a one-in one-out typed function to a host handler.
func unary[A, R any](fn string, f func(context.Context, A) (R, error)) host.Handler {
	return func(ctx context.Context, args []any) ([]any, error) {
		a, err := arg[A](args, 0, fn)
		if err != nil {
			return nil, err
		}
		r, err := f(ctx, a)
		if err != nil {
			return nil, err
		}
		return []any{r}, nil
	}
}

// Builtin returns the default implementations of the built-in interfaces
// keyed by qualified interface name. reg backs the numbers interface.
func Builtin(reg *host.Register) map[string]host.Implementation {
	return map[string]host.Implementation{
		NumbersInterface:       NumbersHandlers(&NumbersImpl{Register: reg}),
		StringsInterface:       StringsHandlers(StringsImpl{}),
		ManyArgumentsInterface: ManyArgumentsHandlers(ManyArgumentsImpl{}),
	}
}
