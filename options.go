package arbiter

import "log/slog"

// TypeResolver maps a value to its type tag. The default is TypeOf.
type TypeResolver func(v any) string

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom slog logger. By default, the registry uses
// slog.Default(). The evaluator itself never logs; the logger is used by
// the transport adapters (Middleware, UnaryInterceptor) on deny paths.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTypeResolver overrides how actor and target type tags are derived,
// for applications whose types cannot implement Entity (generated code,
// third-party models).
func WithTypeResolver(fn TypeResolver) Option {
	return func(r *Registry) {
		if fn != nil {
			r.resolver = fn
		}
	}
}
