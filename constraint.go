package arbiter

import (
	"context"
	"reflect"
)

// Constraint narrows a rule to specific target instances. The two
// implementations are Attrs (property equality) and Predicate (arbitrary
// function). A rule declared without constraints grants unconditionally for
// its action/target pair.
type Constraint interface {
	match(ctx context.Context, target any, extra []any) (bool, error)
}

// Attrs is an attribute-object constraint: a mapping from property name to
// expected value. The rule matches iff every property of the target, read
// through Get, deep-equals its expected value.
type Attrs map[string]any

func (a Attrs) match(_ context.Context, target any, _ []any) (bool, error) {
	for name, want := range a {
		got, _ := Get(target, name)
		if !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// Predicate is a function constraint. It receives the target and any extra
// arguments passed to the originating Can call, exactly as supplied. A
// predicate may block (for example on I/O); the engine awaits its result
// before considering the next rule. The ctx is the caller's context,
// passed through unmodified; the engine adds no timeout or cancellation
// of its own. A predicate error aborts the check and propagates verbatim.
type Predicate func(ctx context.Context, target any, extra ...any) (bool, error)

func (p Predicate) match(ctx context.Context, target any, extra []any) (bool, error) {
	if p == nil {
		return false, errorf("nil predicate")
	}
	return p(ctx, target, extra...)
}
