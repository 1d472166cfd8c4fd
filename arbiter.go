// Package arbiter is a declarative, in-process authorization engine. Given
// an actor, an action name, and a target object, it decides whether the
// action is permitted, based on per-actor-type rule sets registered at
// configuration time.
//
// Quick start using the default registry:
//
//	arbiter.Configure(func(a *arbiter.Ability, user *User) {
//	    a.Can("read", "Product", arbiter.Attrs{"Published": true})
//	    if user.Admin {
//	        a.Can(arbiter.Manage, arbiter.All)
//	    }
//	})
//
//	ok, err := arbiter.Can(ctx, user, "read", product)
//
// For explicit registry management:
//
//	reg := arbiter.NewRegistry(arbiter.WithLogger(logger))
//	reg.Configure("User", func(a *arbiter.Ability, actor any) { ... })
//	if err := reg.Authorize(ctx, user, "update", product); err != nil { ... }
//
// Rules are declared per actor type; every config registered for the actor's
// type runs against a fresh Ability on each check, and declaration order is
// priority order: the first applicable rule whose constraints pass grants
// outright.
package arbiter

import (
	"context"
	"reflect"
)

// defaultRegistry backs the package-level functions. It follows the same
// single-writer convention as any Registry: populate it at startup, check
// against it afterwards.
var defaultRegistry = NewRegistry()

// Default returns the registry backing the package-level functions.
func Default() *Registry {
	return defaultRegistry
}

// Configure registers permission logic for actors of type T on the default
// registry. The type tag is derived from T's Go type name; actors whose
// EntityType() differs from their type name must be registered through
// Registry.Configure with the explicit tag.
func Configure[T any](fn func(a *Ability, actor T)) error {
	tag := typeTag[T]()
	if fn == nil {
		return &ConfigurationError{EntityType: tag, Reason: "nil configure callback"}
	}
	return defaultRegistry.Configure(tag, func(a *Ability, actor any) {
		t, ok := actor.(T)
		if !ok {
			return
		}
		fn(a, t)
	})
}

// Reset clears all configs registered on the default registry.
func Reset() {
	defaultRegistry.Reset()
}

// Can reports whether actor may perform action on target, using the default
// registry.
func Can(ctx context.Context, actor any, action string, target any, extra ...any) (bool, error) {
	return defaultRegistry.Can(ctx, actor, action, target, extra...)
}

// Cannot is the negation of Can, using the default registry.
func Cannot(ctx context.Context, actor any, action string, target any, extra ...any) (bool, error) {
	return defaultRegistry.Cannot(ctx, actor, action, target, extra...)
}

// Authorize returns nil when the check passes and a *AuthorizationError
// otherwise, using the default registry.
func Authorize(ctx context.Context, actor any, action string, target any, extra ...any) error {
	return defaultRegistry.Authorize(ctx, actor, action, target, extra...)
}

// Check evaluates a decision with its reason, using the default registry.
func Check(ctx context.Context, actor any, action string, target any, extra ...any) (*Decision, error) {
	return defaultRegistry.Check(ctx, actor, action, target, extra...)
}

// typeTag derives the type tag for T the same way TypeOf does for an
// instance: dereferenced Go type name.
func typeTag[T any]() string {
	rt := reflect.TypeFor[T]()
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}
