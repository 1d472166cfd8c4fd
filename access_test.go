package arbiter

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

type record struct {
	fields map[string]any
}

func (r *record) Get(name string) any {
	return r.fields[name]
}

type taggedModel struct{}

func (taggedModel) EntityType() string { return "model" }

type plainTarget struct {
	Published bool
	ownerID   string
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"entity names itself", taggedModel{}, "model"},
		{"string is its own tag", "Product", "Product"},
		{"struct", plainTarget{}, "plainTarget"},
		{"pointer dereferenced", &plainTarget{}, "plainTarget"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.v); got != tt.want {
				t.Errorf("TypeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGet_PrefersGetter(t *testing.T) {
	r := &record{fields: map[string]any{"published": true}}

	v, ok := Get(r, "published")
	if !ok || v != true {
		t.Errorf("Get = (%v, %v), want (true, true)", v, ok)
	}

	v, ok = Get(r, "missing")
	if ok || v != nil {
		t.Errorf("Get absent = (%v, %v), want (nil, false)", v, ok)
	}
}

func TestGet_StructpbStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"published": true, "views": 3})
	if err != nil {
		t.Fatal(err)
	}

	v, ok := Get(s, "published")
	if !ok || v != true {
		t.Errorf("Get = (%v, %v), want (true, true)", v, ok)
	}
	if _, ok := Get(s, "missing"); ok {
		t.Error("expected absent field to report false")
	}
}

func TestGet_Map(t *testing.T) {
	m := map[string]int{"views": 3}

	v, ok := Get(m, "views")
	if !ok || v != 3 {
		t.Errorf("Get = (%v, %v), want (3, true)", v, ok)
	}
	if _, ok := Get(m, "missing"); ok {
		t.Error("expected absent key to report false")
	}
	if _, ok := Get(map[int]string{1: "x"}, "1"); ok {
		t.Error("non-string-keyed maps have no named properties")
	}
}

func TestGet_StructField(t *testing.T) {
	target := &plainTarget{Published: true, ownerID: "u1"}

	v, ok := Get(target, "Published")
	if !ok || v != true {
		t.Errorf("exact field = (%v, %v), want (true, true)", v, ok)
	}

	// Attribute keys are usually lower-case; the accessor falls back to a
	// case-insensitive match.
	v, ok = Get(target, "published")
	if !ok || v != true {
		t.Errorf("case-insensitive field = (%v, %v), want (true, true)", v, ok)
	}

	if _, ok := Get(target, "ownerID"); ok {
		t.Error("unexported fields must not resolve")
	}
	if _, ok := Get(target, "missing"); ok {
		t.Error("expected absent field to report false")
	}
}

func TestGet_NilAndScalars(t *testing.T) {
	if _, ok := Get(nil, "anything"); ok {
		t.Error("nil object has no properties")
	}
	var nilPtr *plainTarget
	if _, ok := Get(nilPtr, "Published"); ok {
		t.Error("nil pointer has no properties")
	}
	if _, ok := Get(42, "anything"); ok {
		t.Error("scalars have no properties")
	}
}
