package arbiter

import (
	"reflect"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Entity names its own type tag. Actors and targets that implement Entity
// are matched against registered configs and rule targets by that tag
// instead of their Go type name.
type Entity interface {
	EntityType() string
}

// Getter is the keyed-accessor capability. Objects that implement it (model
// and record types with accessor methods) are read through Get instead of
// direct field access.
type Getter interface {
	Get(name string) any
}

// TypeOf resolves the type tag of a value. Entity implementations name
// themselves; a bare string is its own tag; everything else uses the
// dereferenced Go type name. Matching is exact: there is no inheritance or
// embedding lookup.
func TypeOf(v any) string {
	switch t := v.(type) {
	case Entity:
		return t.EntityType()
	case string:
		return t
	}
	rt := reflect.TypeOf(v)
	if rt == nil {
		return ""
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}

// Get resolves a named property from an arbitrary object. Resolution order:
// a Getter accessor method, a protobuf Struct field, a string-keyed map
// entry, then an exported struct field (exact name first, case-insensitive
// fallback). An absent property is not an error; it resolves to (nil, false)
// and fails equality against any defined expectation.
func Get(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}

	if g, ok := obj.(Getter); ok {
		v := g.Get(name)
		return v, v != nil
	}

	if s, ok := obj.(*structpb.Struct); ok {
		if f, ok := s.GetFields()[name]; ok {
			return f.AsInterface(), true
		}
		return nil, false
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(kt))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(rv, name)
	}
	return nil, false
}

// structField reads an exported field by name. Attribute keys are commonly
// lower-case ("published") while Go fields are exported ("Published"), so an
// exact match is tried first and a case-insensitive match second.
func structField(rv reflect.Value, name string) (any, bool) {
	rt := rv.Type()
	if f, ok := rt.FieldByName(name); ok && f.PkgPath == "" {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath == "" && strings.EqualFold(f.Name, name) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}
