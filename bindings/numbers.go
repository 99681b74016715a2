package bindings

import (
	"context"

	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

const NumbersInterface = iface.NumbersName

// Numbers is the typed form of test:numbers/test.
type Numbers interface {
	RoundtripU8(ctx context.Context, a uint8) (uint8, error)
	RoundtripS8(ctx context.Context, a int8) (int8, error)
	RoundtripU16(ctx context.Context, a uint16) (uint16, error)
	RoundtripS16(ctx context.Context, a int16) (int16, error)
	RoundtripU32(ctx context.Context, a uint32) (uint32, error)
	RoundtripS32(ctx context.Context, a int32) (int32, error)
	RoundtripU64(ctx context.Context, a uint64) (uint64, error)
	RoundtripS64(ctx context.Context, a int64) (int64, error)
	RoundtripF32(ctx context.Context, a float32) (float32, error)
	RoundtripF64(ctx context.Context, a float64) (float64, error)
	RoundtripChar(ctx context.Context, a rune) (rune, error)
	SetScalar(ctx context.Context, a uint32) error
	GetScalar(ctx context.Context) (uint32, error)
}

// NumbersClient calls test:numbers/test through a Caller.
type NumbersClient struct {
	c Caller
}

var _ Numbers = (*NumbersClient)(nil)

func NewNumbersClient(c Caller) *NumbersClient {
	return &NumbersClient{c: c}
}

func (n *NumbersClient) RoundtripU8(ctx context.Context, a uint8) (uint8, error) {
	return call1[uint8](ctx, n.c, NumbersInterface, "roundtrip-u8", a)
}

func (n *NumbersClient) RoundtripS8(ctx context.Context, a int8) (int8, error) {
	return call1[int8](ctx, n.c, NumbersInterface, "roundtrip-s8", a)
}

func (n *NumbersClient) RoundtripU16(ctx context.Context, a uint16) (uint16, error) {
	return call1[uint16](ctx, n.c, NumbersInterface, "roundtrip-u16", a)
}

func (n *NumbersClient) RoundtripS16(ctx context.Context, a int16) (int16, error) {
	return call1[int16](ctx, n.c, NumbersInterface, "roundtrip-s16", a)
}

func (n *NumbersClient) RoundtripU32(ctx context.Context, a uint32) (uint32, error) {
	return call1[uint32](ctx, n.c, NumbersInterface, "roundtrip-u32", a)
}

func (n *NumbersClient) RoundtripS32(ctx context.Context, a int32) (int32, error) {
	return call1[int32](ctx, n.c, NumbersInterface, "roundtrip-s32", a)
}

func (n *NumbersClient) RoundtripU64(ctx context.Context, a uint64) (uint64, error) {
	return call1[uint64](ctx, n.c, NumbersInterface, "roundtrip-u64", a)
}

func (n *NumbersClient) RoundtripS64(ctx context.Context, a int64) (int64, error) {
	return call1[int64](ctx, n.c, NumbersInterface, "roundtrip-s64", a)
}

func (n *NumbersClient) RoundtripF32(ctx context.Context, a float32) (float32, error) {
	return call1[float32](ctx, n.c, NumbersInterface, "roundtrip-f32", a)
}

func (n *NumbersClient) RoundtripF64(ctx context.Context, a float64) (float64, error) {
	return call1[float64](ctx, n.c, NumbersInterface, "roundtrip-f64", a)
}

func (n *NumbersClient) RoundtripChar(ctx context.Context, a rune) (rune, error) {
	return call1[rune](ctx, n.c, NumbersInterface, "roundtrip-char", a)
}

func (n *NumbersClient) SetScalar(ctx context.Context, a uint32) error {
	return call0(ctx, n.c, NumbersInterface, "set-scalar", a)
}

func (n *NumbersClient) GetScalar(ctx context.Context) (uint32, error) {
	return call1[uint32](ctx, n.c, NumbersInterface, "get-scalar")
}

// NumbersImpl echoes every roundtrip and keeps the scalar in Register.
type NumbersImpl struct {
	Register *host.Register
}

var _ Numbers = (*NumbersImpl)(nil)

func (*NumbersImpl) RoundtripU8(_ context.Context, a uint8) (uint8, error)      { return a, nil }
func (*NumbersImpl) RoundtripS8(_ context.Context, a int8) (int8, error)        { return a, nil }
func (*NumbersImpl) RoundtripU16(_ context.Context, a uint16) (uint16, error)   { return a, nil }
func (*NumbersImpl) RoundtripS16(_ context.Context, a int16) (int16, error)     { return a, nil }
func (*NumbersImpl) RoundtripU32(_ context.Context, a uint32) (uint32, error)   { return a, nil }
func (*NumbersImpl) RoundtripS32(_ context.Context, a int32) (int32, error)     { return a, nil }
func (*NumbersImpl) RoundtripU64(_ context.Context, a uint64) (uint64, error)   { return a, nil }
func (*NumbersImpl) RoundtripS64(_ context.Context, a int64) (int64, error)     { return a, nil }
func (*NumbersImpl) RoundtripF32(_ context.Context, a float32) (float32, error) { return a, nil }
func (*NumbersImpl) RoundtripF64(_ context.Context, a float64) (float64, error) { return a, nil }
func (*NumbersImpl) RoundtripChar(_ context.Context, a rune) (rune, error)      { return a, nil }

func (n *NumbersImpl) SetScalar(_ context.Context, a uint32) error {
	n.Register.Set(a)
	return nil
}

func (n *NumbersImpl) GetScalar(context.Context) (uint32, error) {
	return n.Register.Get(), nil
}

// NumbersHandlers serves impl as the host side of test:numbers/test.
func NumbersHandlers(impl Numbers) host.Implementation {
	return host.Implementation{
		"roundtrip-u8":   unary("roundtrip-u8", impl.RoundtripU8),
		"roundtrip-s8":   unary("roundtrip-s8", impl.RoundtripS8),
		"roundtrip-u16":  unary("roundtrip-u16", impl.RoundtripU16),
		"roundtrip-s16":  unary("roundtrip-s16", impl.RoundtripS16),
		"roundtrip-u32":  unary("roundtrip-u32", impl.RoundtripU32),
		"roundtrip-s32":  unary("roundtrip-s32", impl.RoundtripS32),
		"roundtrip-u64":  unary("roundtrip-u64", impl.RoundtripU64),
		"roundtrip-s64":  unary("roundtrip-s64", impl.RoundtripS64),
		"roundtrip-f32":  unary("roundtrip-f32", impl.RoundtripF32),
		"roundtrip-f64":  unary("roundtrip-f64", impl.RoundtripF64),
		"roundtrip-char": unary("roundtrip-char", impl.RoundtripChar),
		"set-scalar": func(ctx context.Context, args []any) ([]any, error) {
			a, err := arg[uint32](args, 0, "set-scalar")
			if err != nil {
				return nil, err
			}
			return nil, impl.SetScalar(ctx, a)
		},
		"get-scalar": func(ctx context.Context, _ []any) ([]any, error) {
			v, err := impl.GetScalar(ctx)
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		},
	}
}
