// Package celmatch compiles CEL expressions into arbiter predicates.
//
// An expression sees two variables: "target", the object under check, and
// "extra", the list of extra arguments passed to the originating Can call:
//
//	pred, err := celmatch.Expr(`target.Published == true`)
//	a.Can("read", "Product", pred)
//
// The expression is compiled once; the returned predicate is safe for
// concurrent use.
package celmatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/arbiterhq/arbiter"
)

// maxExpressionLength is the maximum allowed length for CEL expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion.
const maxCostBudget = 100_000

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Expr compiles a CEL expression into a predicate constraint. The expression
// must be boolean-typed; compilation failures are reported here rather than
// at evaluation time.
func Expr(expression string) (arbiter.Predicate, error) {
	if expression == "" {
		return nil, errors.New("celmatch: expression is empty")
	}
	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("celmatch: expression too long: %d characters (max %d)", len(expression), maxExpressionLength)
	}

	env, err := cel.NewEnv(
		cel.Variable("target", cel.DynType),
		cel.Variable("extra", cel.ListType(cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("celmatch: create environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("celmatch: compilation failed: %w", issues.Err())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("celmatch: program creation failed: %w", err)
	}

	return func(ctx context.Context, target any, extra ...any) (bool, error) {
		if ctx == nil {
			ctx = context.Background()
		}

		extras := make([]any, len(extra))
		for i, e := range extra {
			extras[i] = activationValue(e)
		}
		activation := map[string]any{
			"target": activationValue(target),
			"extra":  extras,
		}

		result, _, err := prg.ContextEval(ctx, activation)
		if err != nil {
			return false, fmt.Errorf("celmatch: evaluation failed: %w", err)
		}

		boolResult, ok := result.Value().(bool)
		if !ok {
			return false, fmt.Errorf("celmatch: expression did not return a boolean, got %T", result.Value())
		}
		return boolResult, nil
	}, nil
}

// activationValue converts a Go value into something the CEL default type
// adapter understands. Maps, slices, and scalars pass through; protobuf
// Structs flatten to maps; anything else (model structs) takes a JSON round
// trip into a map of its exported fields.
func activationValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string,
		int, int32, int64, uint, uint32, uint64, float32, float64,
		[]any, map[string]any:
		return v
	case *structpb.Struct:
		return t.AsMap()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var m any
	if err := json.Unmarshal(data, &m); err != nil {
		return v
	}
	return m
}
