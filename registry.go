package arbiter

import (
	"context"
	"log/slog"
)

// ConfigureFunc populates an Ability with rules for one actor instance. It
// runs once per authorization check, against the fresh Ability built for
// that check, so it may branch on the actor's state.
type ConfigureFunc func(a *Ability, actor any)

// entityConfig binds a registered type tag to its configuration callback.
type entityConfig struct {
	entityType string
	configure  ConfigureFunc
}

// Registry holds the entity configurations an application registers at
// startup. Registration order is evaluation order: registering the same type
// twice accumulates both configs, it does not replace.
//
// The registry is not internally locked. Populate it (Configure) and wipe it
// (Reset) from a single goroutine before checks begin; mutating it while
// checks are in flight is undefined behavior and is the caller's
// responsibility to avoid. Concurrent Can/Cannot/Authorize calls against a
// quiescent registry are safe.
type Registry struct {
	configs  []entityConfig
	logger   *slog.Logger
	resolver TypeResolver
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Configure registers permission logic for a type tag. All configs whose tag
// exactly matches an actor's type run, in registration order, when that
// actor is checked. Returns a *ConfigurationError if the tag is empty or the
// callback is nil.
func (r *Registry) Configure(entityType string, fn ConfigureFunc) error {
	if entityType == "" {
		return &ConfigurationError{EntityType: entityType, Reason: "empty entity type"}
	}
	if fn == nil {
		return &ConfigurationError{EntityType: entityType, Reason: "nil configure callback"}
	}
	r.configs = append(r.configs, entityConfig{entityType: entityType, configure: fn})
	return nil
}

// Reset clears all registered configs. Subsequent checks see no residual
// rules from prior configurations.
func (r *Registry) Reset() {
	r.configs = nil
}

// abilityFor builds the Ability for one check: a fresh rule set, populated
// by every config registered for the actor's type, in registration order.
func (r *Registry) abilityFor(actor any) *Ability {
	tag := r.typeOf(actor)
	ability := &Ability{resolve: r.resolver}
	for _, ec := range r.configs {
		if ec.entityType == tag {
			ec.configure(ability, actor)
		}
	}
	return ability
}

// Can reports whether actor may perform action on target. Extra arguments
// are passed through to predicate constraints untouched.
func (r *Registry) Can(ctx context.Context, actor any, action string, target any, extra ...any) (bool, error) {
	return r.abilityFor(actor).Test(ctx, action, target, extra...)
}

// Cannot is the negation of Can. Errors pass through unnegated.
func (r *Registry) Cannot(ctx context.Context, actor any, action string, target any, extra ...any) (bool, error) {
	ok, err := r.Can(ctx, actor, action, target, extra...)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Authorize returns nil when Can resolves true and a *AuthorizationError
// otherwise. Predicate errors propagate unwrapped; an AuthorizationError is
// returned only for an actual denial.
func (r *Registry) Authorize(ctx context.Context, actor any, action string, target any, extra ...any) error {
	ok, err := r.Can(ctx, actor, action, target, extra...)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{
			Code:       401,
			Reason:     "unauthorized",
			Action:     action,
			TargetType: r.typeOf(target),
			Result:     ok,
		}
	}
	return nil
}

func (r *Registry) typeOf(v any) string {
	if r.resolver != nil {
		return r.resolver(v)
	}
	return TypeOf(v)
}
