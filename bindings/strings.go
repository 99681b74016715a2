package bindings

import (
	"context"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/host"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

const StringsInterface = iface.StringsName

// Strings is the typed form of test:strings/test.
type Strings interface {
	TakeBasic(ctx context.Context, s string) error
	ReturnUnicode(ctx context.Context) (string, error)
	ReturnEmpty(ctx context.Context) (string, error)
	Roundtrip(ctx context.Context, s string) (string, error)
}

type StringsClient struct {
	c Caller
}

var _ Strings = (*StringsClient)(nil)

func NewStringsClient(c Caller) *StringsClient {
	return &StringsClient{c: c}
}

func (s *StringsClient) TakeBasic(ctx context.Context, v string) error {
	return call0(ctx, s.c, StringsInterface, "take-basic", v)
}

func (s *StringsClient) ReturnUnicode(ctx context.Context) (string, error) {
	return call1[string](ctx, s.c, StringsInterface, "return-unicode")
}

func (s *StringsClient) ReturnEmpty(ctx context.Context) (string, error) {
	return call1[string](ctx, s.c, StringsInterface, "return-empty")
}

func (s *StringsClient) Roundtrip(ctx context.Context, v string) (string, error) {
	return call1[string](ctx, s.c, StringsInterface, "roundtrip", v)
}

// StringsImpl asserts take-basic receives iface.BasicText and returns the
// fixed texts.
type StringsImpl struct{}

var _ Strings = StringsImpl{}

func (StringsImpl) TakeBasic(_ context.Context, s string) error {
	if s != iface.BasicText {
		return errors.Expectation([]string{StringsInterface, "take-basic"}, iface.BasicText, s)
	}
	return nil
}

func (StringsImpl) ReturnUnicode(context.Context) (string, error) { return iface.UnicodeText, nil }

func (StringsImpl) ReturnEmpty(context.Context) (string, error) { return "", nil }

func (StringsImpl) Roundtrip(_ context.Context, s string) (string, error) { return s, nil }

func StringsHandlers(impl Strings) host.Implementation {
	return host.Implementation{
		"take-basic": func(ctx context.Context, args []any) ([]any, error) {
			s, err := arg[string](args, 0, "take-basic")
			if err != nil {
				return nil, err
			}
			return nil, impl.TakeBasic(ctx, s)
		},
		"return-unicode": func(ctx context.Context, _ []any) ([]any, error) {
			s, err := impl.ReturnUnicode(ctx)
			if err != nil {
				return nil, err
			}
			return []any{s}, nil
		},
		"return-empty": func(ctx context.Context, _ []any) ([]any, error) {
			s, err := impl.ReturnEmpty(ctx)
			if err != nil {
				return nil, err
			}
			return []any{s}, nil
		},
		"roundtrip": unary("roundtrip", impl.Roundtrip),
	}
}
