package policy

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

const version = "2024-01-01"

// Decide resolves a conclusion to allow or deny, falling back to the policy default for action.
func (p Policy) Decide(action string, c Conclusion) bool {
	switch c {
	case Allow, OK:
		return true
	case Deny, NG:
		return false
	default:
		return p.Defaults[action]
	}
}

// Evaluate runs every statement registered for action. Statements whose condition fails to
// evaluate are skipped.
func Evaluate(doc Document, rctx RequestContext, action string) (Conclusion, Policy, error) {
	policy, ok := doc.Versions[version]
	if !ok {
		return Unset, Policy{}, errors.Errorf("policy %s: unsupported version", doc.Name)
	}

	conclusion := Unset
	for _, stmt := range policy.Statements[action] {
		result, err := Eval(rctx, stmt.Condition)
		if err != nil {
			continue
		}
		if result == true {
			conclusion = conclusion.Or(ParseConclusion(stmt.Emit))
		}
	}
	return conclusion, policy, nil
}

// Allowed reports whether rctx may perform action under doc.
func Allowed(doc Document, rctx RequestContext, action string) (bool, error) {
	conclusion, policy, err := Evaluate(doc, rctx, action)
	if err != nil {
		return false, err
	}
	return policy.Decide(action, conclusion), nil
}

func Eval(rctx RequestContext, expr Expr) (any, error) {
	if expr.Const != nil {
		return expr.Const, nil
	}

	args := make([]any, 0, len(expr.Args))
	for _, arg := range expr.Args {
		v, err := Eval(rctx, arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	op, ok := operators[expr.Operator]
	if !ok {
		return nil, errors.Errorf("unknown operator %q", expr.Operator)
	}
	v, err := op(rctx, args)
	return v, errors.Wrap(err, expr.Operator)
}

type operator func(rctx RequestContext, args []any) (any, error)

var operators = map[string]operator{
	"And":      opAnd,
	"Or":       opOr,
	"Not":      opNot,
	"Eq":       opEq,
	"Contains": opContains,
	"Load":     opLoad,
}

func bools(args []any) ([]bool, error) {
	out := make([]bool, len(args))
	for i, arg := range args {
		b, ok := arg.(bool)
		if !ok {
			return nil, errors.Errorf("argument %d: expected bool, got %v", i, reflect.TypeOf(arg))
		}
		out[i] = b
	}
	return out, nil
}

func arity(args []any, n int) error {
	if len(args) != n {
		return errors.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func opAnd(_ RequestContext, args []any) (any, error) {
	bs, err := bools(args)
	if err != nil {
		return nil, err
	}
	return !slices.Contains(bs, false), nil
}

func opOr(_ RequestContext, args []any) (any, error) {
	bs, err := bools(args)
	if err != nil {
		return nil, err
	}
	return slices.Contains(bs, true), nil
}

func opNot(_ RequestContext, args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	bs, err := bools(args)
	if err != nil {
		return nil, err
	}
	return !bs[0], nil
}

func opEq(_ RequestContext, args []any) (any, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	return args[0] == args[1], nil
}

func opContains(_ RequestContext, args []any) (any, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, errors.Errorf("expected list, got %v", reflect.TypeOf(args[0]))
	}
	return slices.Contains(list, args[1]), nil
}

func opLoad(rctx RequestContext, args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	key, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("expected string key, got %v", reflect.TypeOf(args[0]))
	}

	root := map[string]any{
		"requester": rctx.Requester,
		"params":    rctx.Params,
	}
	v, ok := resolve(root, key)
	if !ok {
		return nil, errors.Errorf("key not found: %s", key)
	}
	return v, nil
}

// resolve walks a dot separated path through nested maps.
func resolve(obj map[string]any, key string) (any, bool) {
	keys := strings.Split(key, ".")
	current := obj
	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	v, ok := current[keys[len(keys)-1]]
	return v, ok
}
