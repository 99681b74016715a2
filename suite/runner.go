package suite

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Nor2-io/wit-bindgen-yowl/bindings"
	"github.com/Nor2-io/wit-bindgen-yowl/boundary"
	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
)

// Property names a group of checks.
type Property string

const (
	PropIntegers       Property = "integers"
	PropFloats         Property = "floats"
	PropChars          Property = "chars"
	PropReturnEmpty    Property = "return-empty"
	PropText           Property = "text"
	PropScalarRegister Property = "scalar-register"
	PropIdempotence    Property = "idempotence"
	PropFixedText      Property = "fixed-text"
	PropManyArguments  Property = "many-arguments"
)

// Properties lists every property in run order.
var Properties = []Property{
	PropIntegers, PropFloats, PropChars, PropReturnEmpty, PropText,
	PropScalarRegister, PropIdempotence, PropFixedText, PropManyArguments,
}

// Result is the outcome of one check.
type Result struct {
	Err       error
	Property  Property
	Name      string
	Encoding  canon.StringEncoding
	Direction boundary.Direction
	Duration  time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of a run.
type Report struct {
	Results  []Result
	Duration time.Duration
}

func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// Failures returns the failed results in run order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) OK() bool { return len(r.Results) > 0 && len(r.Failures()) == 0 }

// Runner runs the checks over fresh sessions, one per encoding.
type Runner struct {
	log        *zap.Logger
	observe    func(Result)
	encodings  []canon.StringEncoding
	directions []boundary.Direction
	properties map[Property]bool
	session    []boundary.Option
}

type Option func(*Runner)

func WithEncodings(encs ...canon.StringEncoding) Option {
	return func(r *Runner) { r.encodings = encs }
}

func WithDirections(dirs ...boundary.Direction) Option {
	return func(r *Runner) { r.directions = dirs }
}

// WithProperties restricts the run to the given properties.
func WithProperties(props ...Property) Option {
	return func(r *Runner) {
		r.properties = make(map[Property]bool, len(props))
		for _, p := range props {
			r.properties[p] = true
		}
	}
}

// WithSessionOptions passes options to every session the runner creates.
func WithSessionOptions(opts ...boundary.Option) Option {
	return func(r *Runner) { r.session = append(r.session, opts...) }
}

// WithObserver calls fn after each check.
func WithObserver(fn func(Result)) Option {
	return func(r *Runner) { r.observe = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		log:        zap.NewNop(),
		encodings:  canon.Encodings,
		directions: boundary.Directions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) enabled(p Property) bool {
	return r.properties == nil || r.properties[p]
}

// Run executes every enabled check. A check failure is recorded in the
// report; only session setup errors are returned.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	for _, enc := range r.encodings {
		opts := append([]boundary.Option{boundary.WithEncoding(enc), boundary.WithLogger(r.log)}, r.session...)
		s, err := boundary.New(ctx, opts...)
		if err != nil {
			return report, err
		}
		for _, dir := range r.directions {
			r.runDirection(ctx, s, enc, dir, report)
		}
		if err := s.Close(ctx); err != nil {
			r.log.Warn("close session", zap.Error(err))
		}
	}

	report.Duration = time.Since(start)
	r.log.Info("suite finished",
		zap.Int("checks", len(report.Results)),
		zap.Int("passed", report.Passed()),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (r *Runner) runDirection(ctx context.Context, s *boundary.Session, enc canon.StringEncoding, dir boundary.Direction, report *Report) {
	caller := s.Caller(dir)
	record := func(p Property, name string, check func() error) {
		if !r.enabled(p) {
			return
		}
		t := time.Now()
		err := check()
		res := Result{
			Property:  p,
			Name:      name,
			Encoding:  enc,
			Direction: dir,
			Duration:  time.Since(t),
			Err:       err,
		}
		report.Results = append(report.Results, res)
		if err != nil {
			r.log.Debug("check failed",
				zap.String("property", string(p)),
				zap.String("name", name),
				zap.Stringer("direction", dir),
				zap.Stringer("encoding", enc),
				zap.Error(err))
		}
		if r.observe != nil {
			r.observe(res)
		}
	}

	for _, c := range IntegerCases() {
		record(PropIntegers, c.String(), func() error { return CheckRoundtrip(ctx, caller, c) })
	}
	for _, c := range FloatCases() {
		record(PropFloats, c.String(), func() error { return CheckRoundtrip(ctx, caller, c) })
	}
	for _, c := range CharCases() {
		record(PropChars, c.String(), func() error { return CheckRoundtrip(ctx, caller, c) })
	}
	record(PropReturnEmpty, "return-empty", func() error { return CheckReturnEmpty(ctx, caller) })
	for _, c := range TextCases() {
		record(PropText, c.String(), func() error { return CheckText(ctx, caller, c.Value) })
	}
	record(PropScalarRegister, "set-get", func() error { return CheckScalarSequence(ctx, caller, 2, 4) })
	for _, c := range PrimitiveCases() {
		record(PropIdempotence, c.String(), func() error { return CheckIdempotent(ctx, caller, c) })
	}
	record(PropFixedText, "take-basic", func() error {
		return bindings.NewStringsClient(caller).TakeBasic(ctx, iface.BasicText)
	})
	record(PropFixedText, "return-unicode", func() error { return CheckReturnUnicode(ctx, caller) })
	record(PropManyArguments, "many-arguments", func() error {
		return bindings.NewManyArgumentsClient(caller).ManyArguments(ctx, bindings.Sequence())
	})
}

// CheckRoundtrip calls the roundtrip function of c's kind and compares the
// result under the kind's equality.
func CheckRoundtrip(ctx context.Context, c bindings.Caller, tc Case) error {
	_, err := roundtrip(ctx, c, tc)
	return err
}

func roundtrip(ctx context.Context, c bindings.Caller, tc Case) (any, error) {
	res, err := c.Call(ctx, iface.NumbersName, tc.Func(), tc.Value)
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Path(iface.NumbersName, tc.Func()).
			Detail("expected 1 result, got %d", len(res)).
			Build()
	}
	if !canon.Equal(tc.Kind, tc.Value, res[0]) {
		return nil, errors.Expectation([]string{iface.NumbersName, tc.Func()}, tc.Value, res[0])
	}
	return res[0], nil
}

// CheckIdempotent calls the roundtrip twice and requires equal outputs.
func CheckIdempotent(ctx context.Context, c bindings.Caller, tc Case) error {
	first, err := roundtrip(ctx, c, tc)
	if err != nil {
		return err
	}
	second, err := roundtrip(ctx, c, tc)
	if err != nil {
		return err
	}
	if !canon.Equal(tc.Kind, first, second) {
		return errors.New(errors.PhaseCall, errors.KindExpectation).
			Path(iface.NumbersName, tc.Func()).
			Detail("second roundtrip returned %v, first returned %v", second, first).
			Build()
	}
	return nil
}

func CheckReturnEmpty(ctx context.Context, c bindings.Caller) error {
	got, err := bindings.NewStringsClient(c).ReturnEmpty(ctx)
	if err != nil {
		return err
	}
	if len(got) != 0 {
		return errors.Expectation([]string{iface.StringsName, "return-empty"}, "", got)
	}
	return nil
}

func CheckReturnUnicode(ctx context.Context, c bindings.Caller) error {
	got, err := bindings.NewStringsClient(c).ReturnUnicode(ctx)
	if err != nil {
		return err
	}
	if !sameScalars(got, iface.UnicodeText) {
		return errors.Expectation([]string{iface.StringsName, "return-unicode"}, iface.UnicodeText, got)
	}
	return nil
}

// CheckText roundtrips s and compares the scalar value sequences.
func CheckText(ctx context.Context, c bindings.Caller, s string) error {
	got, err := bindings.NewStringsClient(c).Roundtrip(ctx, s)
	if err != nil {
		return err
	}
	if !sameScalars(got, s) {
		return errors.Expectation([]string{iface.StringsName, "roundtrip"}, s, got)
	}
	return nil
}

func sameScalars(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

// CheckScalarSequence sets each value in turn and requires the following
// get to observe it.
func CheckScalarSequence(ctx context.Context, c bindings.Caller, values ...uint32) error {
	n := bindings.NewNumbersClient(c)
	for _, v := range values {
		if err := n.SetScalar(ctx, v); err != nil {
			return err
		}
		got, err := n.GetScalar(ctx)
		if err != nil {
			return err
		}
		if got != v {
			return errors.StateMismatch([]string{iface.NumbersName, "get-scalar"}, v, got)
		}
	}
	return nil
}
