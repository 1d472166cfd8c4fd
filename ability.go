package arbiter

import (
	"context"
	"fmt"
)

// Wildcard values understood by the evaluator. Both are tested at evaluation
// time, not expanded at registration time.
const (
	// Manage is the wildcard action: a rule declared for Manage applies to
	// every action name.
	Manage = "manage"

	// All is the wildcard target: a rule declared for All applies to every
	// target type.
	All = "all"
)

// rule is one permission entry: an action name, a target-type tag, and the
// constraints narrowing it to specific target instances.
type rule struct {
	action      string
	targetType  string
	constraints []Constraint
}

// match resolves the rule's constraints against a target, in declaration
// order. A rule with no constraints always matches.
func (r rule) match(ctx context.Context, target any, extra []any) (bool, error) {
	for _, c := range r.constraints {
		ok, err := c.match(ctx, target, extra)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Ability is the ordered rule set built for one authorization decision. A
// fresh Ability is constructed per top-level check and discarded afterwards;
// rule state never leaks between independent checks. Configuration callbacks
// receive the Ability and declare rules on it with Can and CanEach.
type Ability struct {
	rules   []rule
	resolve TypeResolver
}

// Can declares one rule granting action on targets of the given type,
// optionally narrowed by constraints. Declaration order is significant: an
// earlier rule whose constraints pass grants outright, even over a later,
// more restrictive rule.
func (a *Ability) Can(action, target string, constraints ...Constraint) {
	a.rules = append(a.rules, rule{action: action, targetType: target, constraints: constraints})
}

// CanEach declares one rule for every (action, target) pair in the cross
// product. All pairs share the same constraint slice; it is not cloned per
// pair.
func (a *Ability) CanEach(actions, targets []string, constraints ...Constraint) {
	for _, action := range actions {
		for _, target := range targets {
			a.Can(action, target, constraints...)
		}
	}
}

// Test evaluates whether action is permitted on target. Rules are scanned
// sequentially in declaration order; action and target-type matching decide
// whether a rule applies, its constraints decide grant or deny. The first
// applicable rule whose constraints resolve true grants immediately and ends
// the scan; a false constraint result keeps scanning so a later rule can
// still grant. Constraints are never evaluated concurrently; order encodes
// priority. With no applicable rule the result is false. A constraint error
// aborts the check and propagates to the caller.
func (a *Ability) Test(ctx context.Context, action string, target any, extra ...any) (bool, error) {
	d, err := a.decide(ctx, action, target, extra)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// decide runs the rule scan and reports the decision with its reason.
func (a *Ability) decide(ctx context.Context, action string, target any, extra []any) (Decision, error) {
	targetType := a.typeOf(target)

	applicable := 0
	for i, r := range a.rules {
		if r.action != action && r.action != Manage {
			continue
		}
		if r.targetType != targetType && r.targetType != All {
			continue
		}
		applicable++

		ok, err := r.match(ctx, target, extra)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			return Decision{
				Allowed: true,
				Reason:  fmt.Sprintf("granted by rule %d (%s on %s)", i+1, r.action, r.targetType),
			}, nil
		}
	}

	if applicable == 0 {
		return Decision{Reason: fmt.Sprintf("denied: no applicable rule for %s on %s", action, targetType)}, nil
	}
	return Decision{Reason: fmt.Sprintf("denied: %d applicable rule(s) failed their constraints", applicable)}, nil
}

func (a *Ability) typeOf(v any) string {
	if a.resolve != nil {
		return a.resolve(v)
	}
	return TypeOf(v)
}
