// Package cedarmatch evaluates Cedar policy bundles as arbiter constraints.
// Teams that already maintain Cedar policies can mount them as attribute
// constraints instead of porting them to Attrs or hand-written predicates:
//
//	engine := cedarmatch.NewEngine()
//	engine.LoadBundle(map[string]string{"store.cedar": src}, "v1")
//
//	arbiter.Configure(func(a *arbiter.Ability, user *User) {
//	    p := cedarmatch.Principal{Type: "Store::User", ID: user.ID}
//	    a.Can("read", "Product", engine.Constraint(p, "read"))
//	})
//
// The rule's target is presented to Cedar as the resource entity, with its
// exported fields as resource attributes.
package cedarmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/cedar-policy/cedar-go"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/arbiterhq/arbiter"
)

// actionEntityType is the Cedar entity type action names resolve under.
const actionEntityType = cedar.EntityType("Arbiter::Action")

// Principal identifies the Cedar principal a constraint evaluates for,
// with optional principal attributes.
type Principal struct {
	Type       string
	ID         string
	Attributes map[string]any
}

// Engine holds a compiled Cedar policy set. LoadBundle may be called again
// to swap bundles; minted constraints always evaluate against the current
// set.
type Engine struct {
	mu        sync.RWMutex
	policySet *cedar.PolicySet
	version   string
}

// NewEngine creates a Cedar engine with no policies loaded.
func NewEngine() *Engine {
	return &Engine{policySet: cedar.NewPolicySet()}
}

// LoadBundle replaces the current policy set with policies parsed from raw
// Cedar source files. Each entry maps filename to content.
func (e *Engine) LoadBundle(policies map[string]string, version string) error {
	newPolicySet := cedar.NewPolicySet()

	for filename, content := range policies {
		parsed, err := cedar.NewPolicySetFromBytes(filename, []byte(content))
		if err != nil {
			return fmt.Errorf("cedarmatch: parse %s: %w", filename, err)
		}
		for name, p := range parsed.All() {
			uniqueName := cedar.PolicyID(fmt.Sprintf("%s:%s", filename, name))
			newPolicySet.Add(uniqueName, p)
		}
	}

	e.mu.Lock()
	e.policySet = newPolicySet
	e.version = version
	e.mu.Unlock()

	return nil
}

// Version returns the version string of the loaded bundle.
func (e *Engine) Version() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// PolicyCount returns the number of loaded policies.
func (e *Engine) PolicyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for range e.policySet.All() {
		count++
	}
	return count
}

// Constraint mints a predicate that authorizes the rule's target, as the
// Cedar resource, for the given principal and action. Extra arguments of
// type map[string]any merge into the Cedar request context; other extras
// are ignored.
func (e *Engine) Constraint(p Principal, action string) arbiter.Predicate {
	principal := cedar.NewEntityUID(cedar.EntityType(p.Type), cedar.String(p.ID))
	actionUID := cedar.NewEntityUID(actionEntityType, cedar.String(action))

	return func(_ context.Context, target any, extra ...any) (bool, error) {
		attrs := targetAttributes(target)
		resource := cedar.NewEntityUID(cedar.EntityType(arbiter.TypeOf(target)), cedar.String(targetID(target, attrs)))

		entities := cedar.EntityMap{
			principal: cedar.Entity{UID: principal, Attributes: record(p.Attributes)},
			resource:  cedar.Entity{UID: resource, Attributes: record(attrs)},
		}

		req := cedar.Request{
			Principal: principal,
			Action:    actionUID,
			Resource:  resource,
			Context:   record(contextAttributes(extra)),
		}

		e.mu.RLock()
		policySet := e.policySet
		e.mu.RUnlock()

		decision, _ := cedar.Authorize(policySet, entities, req)
		return decision == cedar.Allow, nil
	}
}

// targetAttributes flattens the target into a map of its attributes, the
// same shapes the arbiter property accessor reads.
func targetAttributes(target any) map[string]any {
	switch t := target.(type) {
	case nil:
		return nil
	case *arbiter.Resource:
		m := map[string]any{"kind": t.Kind, "id": t.ID}
		for k, v := range t.Attr {
			m[k] = v
		}
		return m
	case *structpb.Struct:
		return t.AsMap()
	case map[string]any:
		return t
	}

	data, err := json.Marshal(target)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// targetID picks the resource entity ID: an "id" or "ID" attribute when
// present, else empty.
func targetID(target any, attrs map[string]any) string {
	for _, key := range []string{"id", "ID", "Id"} {
		if v, ok := attrs[key]; ok {
			return fmt.Sprint(v)
		}
	}
	if v, ok := arbiter.Get(target, "id"); ok {
		return fmt.Sprint(v)
	}
	return ""
}

// contextAttributes merges map-typed extra arguments into one context map.
func contextAttributes(extra []any) map[string]any {
	var merged map[string]any
	for _, e := range extra {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(m))
		}
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// record converts a Go map into a Cedar record.
func record(m map[string]any) cedar.Record {
	attrs := cedar.RecordMap{}
	for k, v := range m {
		attrs[cedar.String(k)] = cedarValue(v)
	}
	return cedar.NewRecord(attrs)
}

// cedarValue maps a Go value onto the closest Cedar value. JSON-decoded
// numbers arrive as float64; whole values become Cedar longs. Anything
// unrepresentable falls back to its string form.
func cedarValue(v any) cedar.Value {
	switch t := v.(type) {
	case bool:
		return cedar.Boolean(t)
	case string:
		return cedar.String(t)
	case int:
		return cedar.Long(t)
	case int64:
		return cedar.Long(t)
	case float64:
		if t == math.Trunc(t) {
			return cedar.Long(int64(t))
		}
		return cedar.String(fmt.Sprint(t))
	case []any:
		items := make([]cedar.Value, len(t))
		for i, item := range t {
			items[i] = cedarValue(item)
		}
		return cedar.NewSet(items...)
	case map[string]any:
		return record(t)
	default:
		return cedar.String(fmt.Sprint(t))
	}
}
