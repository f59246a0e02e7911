package interpreter

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

// evalStatement dispatches on the ast.Statement sum type. A returnSignal
// returned here is non-local control, not an error; callers at a call
// frame boundary catch it, everyone else just propagates it.
func (e *Evaluator) evalStatement(stmt ast.Statement, scope *runtime.Environment) (runtime.Value, error) {
	switch n := stmt.(type) {
	case ast.Expression:
		return e.evalExpression(n, scope)
	case *ast.Let:
		return e.evalLet(n, scope)
	case *ast.TypeDecl:
		return e.evalTypeDecl(n, scope)
	case *ast.Impl:
		return e.evalImpl(n, scope)
	case *ast.Function:
		return e.evalFunctionDecl(n, scope)
	case *ast.Return:
		return e.evalReturn(n, scope)
	case *ast.If:
		return e.evalIf(n, scope)
	case *ast.While:
		return e.evalWhile(n, scope)
	case *ast.Block:
		return e.evalBlock(n, scope)
	case *ast.Print:
		return e.evalPrint(n, scope)
	case *ast.Delete:
		return e.evalDelete(n, scope)
	case *ast.Import:
		return e.evalImport(n, scope)
	case *ast.ExprStmt:
		return e.evalExpression(n.Expr, scope)
	default:
		return nil, fmt.Errorf("unsupported statement node %T", n)
	}
}

// bindInto implements the universal "value entering a slot" rule from
// spec.md §4.5.2: copy the source value, retain the copy, and release
// whatever previously occupied the slot.
func (e *Evaluator) bindInto(v runtime.Value, old runtime.Value) runtime.Value {
	stored := v.Copy()
	stored.Retain(e.shared.heap)
	if old != nil {
		old.Release(e.shared.heap)
	}
	return stored
}

func (e *Evaluator) evalLet(n *ast.Let, scope *runtime.Environment) (runtime.Value, error) {
	v, err := e.evalExpression(n.Initializer, scope)
	if err != nil {
		return nil, err
	}
	stored := e.bindInto(v, nil)
	scope.Define(n.Name, stored, n.Mutable)
	return runtime.NullValue{}, nil
}

func (e *Evaluator) evalTypeDecl(n *ast.TypeDecl, scope *runtime.Environment) (runtime.Value, error) {
	e.shared.types[n.Name] = &TypeDef{Name: n.Name, Kind: n.Kind, Fields: n.Fields}
	return runtime.NullValue{}, nil
}

func (e *Evaluator) evalImpl(n *ast.Impl, scope *runtime.Environment) (runtime.Value, error) {
	bucket, ok := e.shared.methods[n.TypeName]
	if !ok {
		bucket = make(map[string]*ast.Function)
		e.shared.methods[n.TypeName] = bucket
	}
	for _, m := range n.Methods {
		bucket[m.Name] = m
	}
	return runtime.NullValue{}, nil
}

// evalFunctionDecl defines a top-level `fun` as a FunctionValue closed
// over the defining scope, exactly like a Lambda with no capture list.
func (e *Evaluator) evalFunctionDecl(n *ast.Function, scope *runtime.Environment) (runtime.Value, error) {
	fn := &runtime.FunctionValue{Params: n.Params, Body: n.Body, Closure: scope}
	stored := e.bindInto(fn, nil)
	scope.Define(n.Name, stored, false)
	return runtime.NullValue{}, nil
}

func (e *Evaluator) evalReturn(n *ast.Return, scope *runtime.Environment) (runtime.Value, error) {
	if n.Value == nil {
		return nil, returnSignal{value: runtime.NullValue{}}
	}
	v, err := e.evalExpression(n.Value, scope)
	if err != nil {
		return nil, err
	}
	return nil, returnSignal{value: v}
}

func (e *Evaluator) evalIf(n *ast.If, scope *runtime.Environment) (runtime.Value, error) {
	cond, err := e.evalExpression(n.Condition, scope)
	if err != nil {
		return nil, err
	}
	if cond.Truthy() {
		return e.evalStatement(n.Then, scope)
	}
	if n.Else != nil {
		return e.evalStatement(n.Else, scope)
	}
	return runtime.NullValue{}, nil
}

func (e *Evaluator) evalWhile(n *ast.While, scope *runtime.Environment) (runtime.Value, error) {
	for {
		cond, err := e.evalExpression(n.Condition, scope)
		if err != nil {
			return nil, err
		}
		if !cond.Truthy() {
			return runtime.NullValue{}, nil
		}
		if _, err := e.evalStatement(n.Body, scope); err != nil {
			return nil, err
		}
	}
}

// evalBlock runs a nested INDENT/DEDENT block in a fresh child scope and
// releases every local binding on exit, per spec.md §4.5.2's block-exit
// rule. A returnSignal still releases the block's locals on its way out,
// except for the value it's carrying — see ReleaseExcept.
func (e *Evaluator) evalBlock(n *ast.Block, scope *runtime.Environment) (runtime.Value, error) {
	child := runtime.NewEnvironment(scope)

	var last runtime.Value = runtime.NullValue{}
	for _, stmt := range n.Statements {
		v, err := e.evalStatement(stmt, child)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				child.ReleaseExcept(e.shared.heap, rs.value)
				return nil, err
			}
			child.Release(e.shared.heap)
			return nil, err
		}
		last = v
	}
	child.Release(e.shared.heap)
	return last, nil
}

func (e *Evaluator) evalPrint(n *ast.Print, scope *runtime.Environment) (runtime.Value, error) {
	v, err := e.evalExpression(n.Value, scope)
	if err != nil {
		return nil, err
	}
	fmt.Println(runtime.Stringify(v, e.shared.heap))
	return runtime.NullValue{}, nil
}

// evalDelete accepts the statement syntactically but performs no action,
// per spec.md §4.5.9 and the Open Question decision that kept it as a
// parsed no-op. The diagnostic text matches the spec literally.
func (e *Evaluator) evalDelete(n *ast.Delete, scope *runtime.Environment) (runtime.Value, error) {
	fmt.Fprintln(stderrWriter, "Manual delete command ignored in ARC mode.")
	return runtime.NullValue{}, nil
}
