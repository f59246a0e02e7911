package interpreter

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

func (e *Evaluator) evalExpression(expr ast.Expression, scope *runtime.Environment) (runtime.Value, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return evalLiteral(n), nil
	case *ast.Variable:
		return scope.Get(n.Name)
	case *ast.Assign:
		return e.evalAssign(n, scope)
	case *ast.Binary:
		return e.evalBinary(n, scope)
	case *ast.Unary:
		return e.evalUnary(n, scope)
	case *ast.Grouping:
		return e.evalExpression(n.Expr, scope)
	case *ast.Get:
		return e.evalGet(n, scope)
	case *ast.Set:
		return e.evalSet(n, scope)
	case *ast.Call:
		return e.evalCall(n, scope)
	case *ast.New:
		return e.evalNew(n, scope)
	case *ast.This:
		return scope.Get("this")
	case *ast.ListLit:
		return e.evalListLit(n, scope)
	case *ast.Lambda:
		return e.evalLambda(n, scope)
	case *ast.AddressOf:
		return e.evalAddressOf(n, scope)
	case *ast.Dereference:
		return e.evalDereference(n, scope)
	case *ast.PointerSet:
		return e.evalPointerSet(n, scope)
	case *ast.Atom:
		return runtime.AtomValue{Name: n.Name}, nil
	case *ast.Tuple:
		return e.evalTuple(n, scope)
	case *ast.MapLit:
		return e.evalMapLit(n, scope)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", n)
	}
}

func evalLiteral(n *ast.Literal) runtime.Value {
	switch n.Kind {
	case ast.LiteralInt:
		return runtime.PrimInt{Val: n.Int}
	case ast.LiteralString:
		return runtime.PrimString{Val: n.Str}
	case ast.LiteralBool:
		return runtime.PrimBool{Val: n.Bool}
	default:
		return runtime.NullValue{}
	}
}

func (e *Evaluator) evalAssign(n *ast.Assign, scope *runtime.Environment) (runtime.Value, error) {
	v, err := e.evalExpression(n.Value, scope)
	if err != nil {
		return nil, err
	}
	stored := v.Copy()
	stored.Retain(e.shared.heap)
	old, err := scope.Assign(n.Name, stored)
	if err != nil {
		stored.Release(e.shared.heap)
		return nil, err
	}
	if old != nil {
		old.Release(e.shared.heap)
	}
	return stored, nil
}

// evalBinary implements spec.md §4.5.3's operator table.
func (e *Evaluator) evalBinary(n *ast.Binary, scope *runtime.Environment) (runtime.Value, error) {
	if n.Op == "==" || n.Op == "!=" {
		l, err := e.evalExpression(n.Left, scope)
		if err != nil {
			return nil, err
		}
		r, err := e.evalExpression(n.Right, scope)
		if err != nil {
			return nil, err
		}
		eq := l.Equal(r)
		if n.Op == "!=" {
			eq = !eq
		}
		return runtime.PrimBool{Val: eq}, nil
	}

	l, err := e.evalExpression(n.Left, scope)
	if err != nil {
		return nil, err
	}
	r, err := e.evalExpression(n.Right, scope)
	if err != nil {
		return nil, err
	}

	if n.Op == "+" {
		li, lok := l.(runtime.PrimInt)
		ri, rok := r.(runtime.PrimInt)
		if lok && rok {
			return runtime.PrimInt{Val: li.Val + ri.Val}, nil
		}
		ls, lsok := l.(runtime.PrimString)
		rs, rsok := r.(runtime.PrimString)
		if lsok && rsok {
			return runtime.PrimString{Val: ls.Val + rs.Val}, nil
		}
		return nil, fmt.Errorf("Operands must be two numbers or two strings.")
	}

	li, lok := l.(runtime.PrimInt)
	ri, rok := r.(runtime.PrimInt)
	if !lok || !rok {
		return nil, fmt.Errorf("Operands must be two numbers.")
	}
	switch n.Op {
	case "-":
		return runtime.PrimInt{Val: li.Val - ri.Val}, nil
	case "*":
		return runtime.PrimInt{Val: li.Val * ri.Val}, nil
	case "/":
		if ri.Val == 0 {
			return nil, fmt.Errorf("Division by zero.")
		}
		return runtime.PrimInt{Val: li.Val / ri.Val}, nil // Go truncates toward zero
	case "<":
		return runtime.PrimBool{Val: li.Val < ri.Val}, nil
	case "<=":
		return runtime.PrimBool{Val: li.Val <= ri.Val}, nil
	case ">":
		return runtime.PrimBool{Val: li.Val > ri.Val}, nil
	case ">=":
		return runtime.PrimBool{Val: li.Val >= ri.Val}, nil
	default:
		return nil, fmt.Errorf("unsupported binary operator %q", n.Op)
	}
}

func (e *Evaluator) evalUnary(n *ast.Unary, scope *runtime.Environment) (runtime.Value, error) {
	r, err := e.evalExpression(n.Right, scope)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "!":
		return runtime.PrimBool{Val: !r.Truthy()}, nil
	case "-":
		i, ok := r.(runtime.PrimInt)
		if !ok {
			return nil, fmt.Errorf("Operand must be a number.")
		}
		return runtime.PrimInt{Val: -i.Val}, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator %q", n.Op)
	}
}

// evalGet implements field read, including through a ClassRef (dereference
// through the heap first), and reading a bound method as a value when no
// field of that name exists.
func (e *Evaluator) evalGet(n *ast.Get, scope *runtime.Environment) (runtime.Value, error) {
	obj, err := e.evalExpression(n.Object, scope)
	if err != nil {
		return nil, err
	}
	payload, typeName, err := e.structPayload(obj)
	if err != nil {
		return nil, err
	}
	if f, ok := payload.Fields[n.Name]; ok {
		return f, nil
	}
	if fn, ok := e.lookupMethod(typeName, n.Name); ok {
		return e.bindMethod(fn, obj, scope), nil
	}
	return nil, fmt.Errorf("Method '%s' not defined for type '%s'.", n.Name, typeName)
}

// structPayload resolves obj to its underlying StructValue payload and
// type name, dereferencing through the heap for a ClassRef.
func (e *Evaluator) structPayload(obj runtime.Value) (*runtime.StructValue, string, error) {
	switch v := obj.(type) {
	case *runtime.StructValue:
		return v, v.TypeName, nil
	case runtime.ClassRefValue:
		payload, err := e.shared.heap.Dereference(v.Address)
		if err != nil {
			return nil, v.TypeName, err
		}
		return payload, v.TypeName, nil
	default:
		return nil, "", fmt.Errorf("value of kind %s has no fields", obj.Kind())
	}
}

func (e *Evaluator) evalSet(n *ast.Set, scope *runtime.Environment) (runtime.Value, error) {
	obj, err := e.evalExpression(n.Object, scope)
	if err != nil {
		return nil, err
	}
	v, err := e.evalExpression(n.Value, scope)
	if err != nil {
		return nil, err
	}
	payload, _, err := e.structPayload(obj)
	if err != nil {
		return nil, err
	}
	stored := e.bindInto(v, payload.Fields[n.Name])
	payload.Fields[n.Name] = stored
	return stored, nil
}

func (e *Evaluator) evalTuple(n *ast.Tuple, scope *runtime.Environment) (runtime.Value, error) {
	elems := make([]runtime.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := e.evalExpression(el, scope)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return runtime.TupleValue{Elements: elems}, nil
}

func (e *Evaluator) evalListLit(n *ast.ListLit, scope *runtime.Environment) (runtime.Value, error) {
	elems := make([]runtime.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := e.evalExpression(el, scope)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return runtime.NewList(elems), nil
}

func (e *Evaluator) evalMapLit(n *ast.MapLit, scope *runtime.Environment) (runtime.Value, error) {
	m := runtime.NewMap()
	for i := range n.Keys {
		k, err := e.evalExpression(n.Keys[i], scope)
		if err != nil {
			return nil, err
		}
		v, err := e.evalExpression(n.Values[i], scope)
		if err != nil {
			return nil, err
		}
		m.Set(e.shared.heap, k, v)
	}
	return m, nil
}

func (e *Evaluator) evalAddressOf(n *ast.AddressOf, scope *runtime.Environment) (runtime.Value, error) {
	owner := scope.Resolve(n.Name)
	if owner == nil {
		return nil, fmt.Errorf("Undefined variable '%s'", n.Name)
	}
	return runtime.PointerValue{Scope: owner, Name: n.Name}, nil
}

func (e *Evaluator) evalDereference(n *ast.Dereference, scope *runtime.Environment) (runtime.Value, error) {
	target, err := e.evalExpression(n.Target, scope)
	if err != nil {
		return nil, err
	}
	ptr, ok := target.(runtime.PointerValue)
	if !ok {
		return nil, fmt.Errorf("TypeError: '.*' requires a pointer")
	}
	return ptr.Scope.Get(ptr.Name)
}

func (e *Evaluator) evalPointerSet(n *ast.PointerSet, scope *runtime.Environment) (runtime.Value, error) {
	target, err := e.evalExpression(n.Pointer, scope)
	if err != nil {
		return nil, err
	}
	ptr, ok := target.(runtime.PointerValue)
	if !ok {
		return nil, fmt.Errorf("TypeError: '.*' requires a pointer")
	}
	v, err := e.evalExpression(n.Value, scope)
	if err != nil {
		return nil, err
	}
	stored := v.Copy()
	stored.Retain(e.shared.heap)
	old, err := ptr.Scope.Assign(ptr.Name, stored)
	if err != nil {
		stored.Release(e.shared.heap)
		return nil, err
	}
	if old != nil {
		old.Release(e.shared.heap)
	}
	return stored, nil
}
