package arbiter

import (
	"context"
)

// Decision is the result of a policy evaluation.
type Decision struct {
	// Allowed indicates whether the action is permitted.
	Allowed bool
	// Reason provides a human-readable explanation of the decision.
	Reason string
}

// Check is the rich form of Can: it evaluates the same rule scan and reports
// the outcome together with the reason (which rule granted, or why the check
// was denied). Transport adapters use it to log deny reasons.
func (r *Registry) Check(ctx context.Context, actor any, action string, target any, extra ...any) (*Decision, error) {
	d, err := r.abilityFor(actor).decide(ctx, action, target, extra)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
