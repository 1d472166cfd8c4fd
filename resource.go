package arbiter

// Resource is a ready-made target for checks that authorize by name rather
// than by model instance, such as the HTTP middleware and the connect
// interceptor. It carries its own type tag and exposes its fields through
// the Getter capability, so attribute constraints work on it directly.
type Resource struct {
	// Kind is the resource's type tag ("products", "orders").
	Kind string
	// ID identifies the individual resource, if any.
	ID string
	// Attr holds additional attributes visible to constraints.
	Attr map[string]any
}

// EntityType returns the resource kind.
func (r *Resource) EntityType() string {
	return r.Kind
}

// Get resolves "kind", "id", and any Attr entry.
func (r *Resource) Get(name string) any {
	switch name {
	case "kind":
		return r.Kind
	case "id":
		return r.ID
	}
	if r.Attr != nil {
		return r.Attr[name]
	}
	return nil
}
