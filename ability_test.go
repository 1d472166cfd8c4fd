package arbiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter"
)

type Product struct {
	Name      string
	Published bool
}

type Post struct {
	AuthorID string
}

func TestAbility_UnconditionalGrant(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product")

	ok, err := a.Test(context.Background(), "read", &Product{Name: "x"})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if !ok {
		t.Error("expected grant for declared action")
	}
}

func TestAbility_UndeclaredActionDenied(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product")

	ok, err := a.Test(context.Background(), "create", &Product{})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if ok {
		t.Error("expected deny when only 'read' was granted")
	}
}

func TestAbility_UndeclaredTargetDenied(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product")

	ok, err := a.Test(context.Background(), "read", &Post{})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if ok {
		t.Error("expected deny for an unregistered target type")
	}
}

func TestAbility_ManageWildcard(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can(arbiter.Manage, "Product")

	for _, action := range []string{"read", "create", "archive"} {
		ok, err := a.Test(context.Background(), action, &Product{})
		if err != nil {
			t.Fatalf("Test(%q) error: %v", action, err)
		}
		if !ok {
			t.Errorf("manage wildcard did not grant %q", action)
		}
	}
}

func TestAbility_ManageAllGrantsEverything(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can(arbiter.Manage, arbiter.All)

	targets := []any{&Product{}, &Post{}, "User"}
	for _, target := range targets {
		ok, err := a.Test(context.Background(), "archive", target)
		if err != nil {
			t.Fatalf("Test error: %v", err)
		}
		if !ok {
			t.Errorf("manage/all did not grant archive on %T", target)
		}
	}
}

func TestAbility_AttrsConstraint(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product", arbiter.Attrs{"Published": true})

	tests := []struct {
		name   string
		target any
		want   bool
	}{
		{"published product", &Product{Published: true}, true},
		{"unpublished product", &Product{Published: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := a.Test(context.Background(), "read", tt.target)
			if err != nil {
				t.Fatalf("Test error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("Test = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestAbility_AttrsAbsentPropertyDenies(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", arbiter.All, arbiter.Attrs{"Published": true})

	ok, err := a.Test(context.Background(), "read", map[string]any{"Name": "no published key"})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if ok {
		t.Error("absent property must fail a defined expectation")
	}
}

func TestAbility_PredicateSyncAndBlocking(t *testing.T) {
	owns := func(_ context.Context, target any, extra ...any) (bool, error) {
		return target.(*Post).AuthorID == "u1", nil
	}
	// Same decision, but resolved on another goroutine first. The engine
	// must await it with identical observable semantics.
	blocking := func(ctx context.Context, target any, extra ...any) (bool, error) {
		done := make(chan bool, 1)
		go func() {
			time.Sleep(5 * time.Millisecond)
			done <- target.(*Post).AuthorID == "u1"
		}()
		select {
		case ok := <-done:
			return ok, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	for _, tt := range []struct {
		name string
		pred arbiter.Predicate
	}{
		{"sync", owns},
		{"blocking", blocking},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a := &arbiter.Ability{}
			a.Can("edit", "Post", tt.pred)

			ok, err := a.Test(context.Background(), "edit", &Post{AuthorID: "u1"})
			if err != nil {
				t.Fatalf("Test error: %v", err)
			}
			if !ok {
				t.Error("expected grant for owned post")
			}

			ok, err = a.Test(context.Background(), "edit", &Post{AuthorID: "u2"})
			if err != nil {
				t.Fatalf("Test error: %v", err)
			}
			if ok {
				t.Error("expected deny for someone else's post")
			}
		})
	}
}

func TestAbility_ScanContinuesPastFailedConstraint(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product", arbiter.Attrs{"Published": true})
	a.Can("read", "Product") // broader grant declared later

	ok, err := a.Test(context.Background(), "read", &Product{Published: false})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if !ok {
		t.Error("expected later unconditional rule to grant after earlier constraint failed")
	}
}

func TestAbility_EarlierGrantShortCircuits(t *testing.T) {
	laterEvaluated := false
	a := &arbiter.Ability{}
	a.Can("read", "Product")
	a.Can("read", "Product", arbiter.Predicate(func(context.Context, any, ...any) (bool, error) {
		laterEvaluated = true
		return false, nil
	}))

	ok, err := a.Test(context.Background(), "read", &Product{})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if !ok {
		t.Error("expected grant from the earlier rule")
	}
	if laterEvaluated {
		t.Error("later rule's predicate ran after an earlier grant")
	}
}

func TestAbility_PredicateErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	a := &arbiter.Ability{}
	a.Can("read", "Product", arbiter.Predicate(func(context.Context, any, ...any) (bool, error) {
		return false, boom
	}))
	a.Can("read", "Product") // never reached: the error aborts the scan

	_, err := a.Test(context.Background(), "read", &Product{})
	if !errors.Is(err, boom) {
		t.Fatalf("Test error = %v, want %v", err, boom)
	}
}

func TestAbility_ExtraArgsReachPredicate(t *testing.T) {
	var got []any
	a := &arbiter.Ability{}
	a.Can("read", "Product", arbiter.Predicate(func(_ context.Context, _ any, extra ...any) (bool, error) {
		got = append([]any(nil), extra...)
		return true, nil
	}))

	_, err := a.Test(context.Background(), "read", &Product{}, "ip=10.0.0.1", 42)
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if len(got) != 2 || got[0] != "ip=10.0.0.1" || got[1] != 42 {
		t.Errorf("predicate extras = %v, want [ip=10.0.0.1 42]", got)
	}
}

func TestAbility_CanEachCrossProduct(t *testing.T) {
	a := &arbiter.Ability{}
	a.CanEach([]string{"read", "update"}, []string{"Product", "Post"})

	for _, action := range []string{"read", "update"} {
		for _, target := range []any{&Product{}, &Post{}} {
			ok, err := a.Test(context.Background(), action, target)
			if err != nil {
				t.Fatalf("Test error: %v", err)
			}
			if !ok {
				t.Errorf("cross product missing %s on %T", action, target)
			}
		}
	}

	ok, err := a.Test(context.Background(), "delete", &Product{})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if ok {
		t.Error("cross product granted an undeclared action")
	}
}

func TestAbility_MultipleConstraintsAllMustMatch(t *testing.T) {
	a := &arbiter.Ability{}
	a.Can("read", "Product",
		arbiter.Attrs{"Published": true},
		arbiter.Predicate(func(_ context.Context, target any, _ ...any) (bool, error) {
			return target.(*Product).Name != "", nil
		}),
	)

	ok, err := a.Test(context.Background(), "read", &Product{Name: "x", Published: true})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if !ok {
		t.Error("expected grant when every constraint matches")
	}

	ok, err = a.Test(context.Background(), "read", &Product{Published: true})
	if err != nil {
		t.Fatalf("Test error: %v", err)
	}
	if ok {
		t.Error("expected deny when one constraint fails")
	}
}
