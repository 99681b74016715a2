package bindings

import (
	"context"
	"strconv"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

const ManyArgumentsInterface = iface.ManyArgumentsName

// ManyArgumentCount is the arity of many-arguments.
const ManyArgumentCount = 16

type ManyArguments interface {
	ManyArguments(ctx context.Context, a [ManyArgumentCount]uint64) error
}

type ManyArgumentsClient struct {
	c Caller
}

var _ ManyArguments = (*ManyArgumentsClient)(nil)

func NewManyArgumentsClient(c Caller) *ManyArgumentsClient {
	return &ManyArgumentsClient{c: c}
}

func (m *ManyArgumentsClient) ManyArguments(ctx context.Context, a [ManyArgumentCount]uint64) error {
	args := make([]any, ManyArgumentCount)
	for i, v := range a {
		args[i] = v
	}
	return call0(ctx, m.c, ManyArgumentsInterface, "many-arguments", args...)
}

// Sequence returns the arguments 1..16 that ManyArgumentsImpl expects.
func Sequence() [ManyArgumentCount]uint64 {
	var a [ManyArgumentCount]uint64
	for i := range a {
		a[i] = uint64(i + 1)
	}
	return a
}

// ManyArgumentsImpl asserts that argument i (1-based) equals i.
type ManyArgumentsImpl struct{}

func (ManyArgumentsImpl) ManyArguments(_ context.Context, a [ManyArgumentCount]uint64) error {
	want := Sequence()
	for i := range a {
		if a[i] != want[i] {
			return errors.Expectation([]string{ManyArgumentsInterface, "many-arguments", paramName(i)}, want[i], a[i])
		}
	}
	return nil
}

func paramName(i int) string {
	return "a" + strconv.Itoa(i+1)
}

func ManyArgumentsHandlers(impl ManyArguments) host.Implementation {
	return host.Implementation{
		"many-arguments": func(ctx context.Context, args []any) ([]any, error) {
			var a [ManyArgumentCount]uint64
			for i := range a {
				v, err := arg[uint64](args, i, "many-arguments", paramName(i))
				if err != nil {
					return nil, err
				}
				a[i] = v
			}
			return nil, impl.ManyArguments(ctx, a)
		},
	}
}
