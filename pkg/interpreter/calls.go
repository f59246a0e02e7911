package interpreter

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

func (e *Evaluator) lookupMethod(typeName, name string) (*ast.Function, bool) {
	bucket, ok := e.shared.methods[typeName]
	if !ok {
		return nil, false
	}
	fn, ok := bucket[name]
	return fn, ok
}

// boundMethod pairs a method's AST with the receiver it was looked up
// against, so evalCall can bind `this` when it's invoked.
type boundMethod struct {
	fn       *ast.Function
	receiver runtime.Value
	scope    *runtime.Environment
}

func (boundMethod) Kind() runtime.Kind           { return runtime.KindNative }
func (b boundMethod) Copy() runtime.Value        { return b }
func (boundMethod) Retain(*runtime.Heap)         {}
func (boundMethod) Release(*runtime.Heap)        {}
func (boundMethod) Truthy() bool                 { return true }
func (b boundMethod) Equal(o runtime.Value) bool { other, ok := o.(boundMethod); return ok && other.fn == b.fn }

func (e *Evaluator) bindMethod(fn *ast.Function, receiver runtime.Value, scope *runtime.Environment) runtime.Value {
	return boundMethod{fn: fn, receiver: receiver, scope: scope}
}

// evalCall implements spec.md §4.5.3's method-call resolution order when
// the callee is a Get, and the plain call protocol (§4.5.4) otherwise.
func (e *Evaluator) evalCall(n *ast.Call, scope *runtime.Environment) (runtime.Value, error) {
	if get, ok := n.Callee.(*ast.Get); ok {
		return e.evalMethodCall(get, n.Args, scope)
	}
	callee, err := e.evalExpression(n.Callee, scope)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArgs(n.Args, scope)
	if err != nil {
		return nil, err
	}
	return e.invoke(callee, args)
}

// evalMethodCall handles `obj.name(args)`: a callable field wins first,
// then the method table, otherwise a NameError.
func (e *Evaluator) evalMethodCall(get *ast.Get, argExprs []ast.Expression, scope *runtime.Environment) (runtime.Value, error) {
	obj, err := e.evalExpression(get.Object, scope)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArgs(argExprs, scope)
	if err != nil {
		return nil, err
	}
	payload, typeName, err := e.structPayload(obj)
	if err != nil {
		return nil, err
	}
	if f, ok := payload.Fields[get.Name]; ok && isCallable(f) {
		return e.invoke(f, args)
	}
	fn, ok := e.lookupMethod(typeName, get.Name)
	if !ok {
		return nil, fmt.Errorf("Method '%s' not defined for type '%s'.", get.Name, typeName)
	}
	return e.invokeMethod(fn, obj, args, scope)
}

func isCallable(v runtime.Value) bool {
	switch v.(type) {
	case *runtime.FunctionValue, runtime.NativeValue:
		return true
	default:
		return false
	}
}

func (e *Evaluator) evalArgs(exprs []ast.Expression, scope *runtime.Environment) ([]runtime.Value, error) {
	args := make([]runtime.Value, len(exprs))
	for i, ex := range exprs {
		v, err := e.evalExpression(ex, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// invoke dispatches a callable Value against already-evaluated args.
func (e *Evaluator) invoke(callee runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return e.invokeFunction(fn, args, nil)
	case runtime.NativeValue:
		if len(args) != fn.Arity {
			return nil, fmt.Errorf("Lambda/Method expects %d args.", fn.Arity)
		}
		return fn.Impl(e.shared.heap, args)
	case boundMethod:
		return e.invokeMethod(fn.fn, fn.receiver, args, fn.scope)
	default:
		return nil, fmt.Errorf("TypeError: value of kind %s is not callable", callee.Kind())
	}
}

// invokeFunction implements spec.md §4.5.4: argument count must match;
// each argument slot is bound under the copy/retain/release protocol;
// the body runs in a fresh scope parented to the closure's captured
// scope; a returnSignal unwinds with its value, falling off the end
// yields null.
func (e *Evaluator) invokeFunction(fn *runtime.FunctionValue, args []runtime.Value, receiver runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("Lambda/Method expects %d args.", len(fn.Params))
	}
	callScope := runtime.NewEnvironment(fn.Closure)

	if receiver != nil {
		stored := e.bindInto(receiver, nil)
		callScope.Define("this", stored, false)
	}
	for i, p := range fn.Params {
		stored := e.bindInto(args[i], nil)
		callScope.Define(p, stored, true)
	}
	for _, stmt := range fn.Body {
		if _, err := e.evalStatement(stmt, callScope); err != nil {
			if rs, ok := err.(returnSignal); ok {
				// rs.value may be a binding local to callScope (e.g. a
				// returned class reference). Releasing every local the
				// normal way would drop that reference before the caller
				// has a chance to retain it, so it's excluded here and
				// leaves the frame exactly as live as it entered it.
				callScope.ReleaseExcept(e.shared.heap, rs.value)
				return rs.value, nil
			}
			callScope.Release(e.shared.heap)
			return nil, err
		}
	}
	callScope.Release(e.shared.heap)
	return runtime.NullValue{}, nil
}

// invokeMethod runs a method-table Function against a receiver, binding
// `this` to a copy of the receiver exactly like a parameter (§4.5.3.2).
func (e *Evaluator) invokeMethod(def *ast.Function, receiver runtime.Value, args []runtime.Value, scope *runtime.Environment) (runtime.Value, error) {
	fn := &runtime.FunctionValue{Params: def.Params, Body: def.Body, Closure: scope}
	return e.invokeFunction(fn, args, receiver)
}

// evalNew implements spec.md §4.5.3's `new T(...)` construction rule.
func (e *Evaluator) evalNew(n *ast.New, scope *runtime.Environment) (runtime.Value, error) {
	def, ok := e.shared.types[n.TypeName]
	if !ok {
		return nil, fmt.Errorf("Undefined type '%s'", n.TypeName)
	}
	if len(n.Args) != len(def.Fields) {
		return nil, fmt.Errorf("TypeError: '%s' expects %d args.", n.TypeName, len(def.Fields))
	}
	payload := runtime.NewStruct(n.TypeName, def.Fields)
	for i, fieldName := range def.Fields {
		v, err := e.evalExpression(n.Args[i], scope)
		if err != nil {
			return nil, err
		}
		payload.Fields[fieldName] = v.Copy()
	}
	if def.Kind == ast.TypeKindClass {
		addr := e.shared.heap.Allocate(payload)
		return runtime.ClassRefValue{Address: addr, TypeName: n.TypeName}, nil
	}
	return payload, nil
}

// evalLambda implements spec.md §4.5.5: a fresh captured scope parented
// to the defining scope, holding a copied+retained binding per IDENT
// capture, or a Pointer aliasing the defining scope per *IDENT capture.
func (e *Evaluator) evalLambda(n *ast.Lambda, scope *runtime.Environment) (runtime.Value, error) {
	captureScope := runtime.NewEnvironment(scope)
	for _, c := range n.Captures {
		if c.ByAddress {
			owner := scope.Resolve(c.Name)
			if owner == nil {
				return nil, fmt.Errorf("Undefined variable '%s'", c.Name)
			}
			ptr := runtime.PointerValue{Scope: owner, Name: c.Name}
			captureScope.Define(c.Name, ptr, true)
			continue
		}
		v, err := scope.Get(c.Name)
		if err != nil {
			return nil, err
		}
		stored := e.bindInto(v, nil)
		captureScope.Define(c.Name, stored, true)
	}
	return &runtime.FunctionValue{Params: n.Params, Body: n.Body, Closure: captureScope}, nil
}
