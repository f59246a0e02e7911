// Package interpreter is the tree-walking evaluator: it carries a current
// scope, a shared heap, a shared type-definition table, and a shared
// method table, and executes the ast package's statement/expression trees
// against them.
package interpreter

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

// TypeDef records one `type` declaration: its field order and whether it
// is a value-kind struct or a reference-kind class.
type TypeDef struct {
	Name   string
	Kind   ast.TypeKind
	Fields []string
}

// sharedState is the part of the Evaluator's state that module import and
// thread spawn must share: the heap, the type table, the method table,
// and the native-function root scope. A new Evaluator built for a module
// gets a fresh scope parented on natives, and one built for a spawned task
// runs against the spawned closure's own scope; both point at the same
// sharedState.
type sharedState struct {
	heap    *runtime.Heap
	types   map[string]*TypeDef
	methods map[string]map[string]*ast.Function
	natives *runtime.Environment
}

func newSharedState() *sharedState {
	s := &sharedState{
		heap:    runtime.NewHeap(),
		types:   make(map[string]*TypeDef),
		methods: make(map[string]map[string]*ast.Function),
	}
	s.natives = runtime.NewEnvironment(nil)
	return s
}

// Evaluator is the tree-walking executor described in spec.md §4.5.
type Evaluator struct {
	scope    *runtime.Environment
	shared   *sharedState
	provider SourceProvider
	executor *Executor
}

// SourceProvider is the engine-host interface spec.md §4.5.8/§6 names:
// the evaluator asks the host for a module's source bytes instead of
// touching the filesystem itself.
type SourceProvider interface {
	ReadSource(path string) (string, error)
}

// New returns an Evaluator with a fresh global scope, a fresh heap, empty
// type/method tables, and the native-function roster installed.
func New(provider SourceProvider) *Evaluator {
	shared := newSharedState()
	e := &Evaluator{
		scope:    runtime.NewEnvironment(shared.natives),
		shared:   shared,
		provider: provider,
	}
	installNatives(shared.natives)
	e.executor = NewExecutor(e)
	installSpawn(shared.natives, e.executor)
	return e
}

// Heap exposes the shared heap, mainly for tests asserting the retain/
// release invariant from spec.md §8.1.
func (e *Evaluator) Heap() *runtime.Heap { return e.shared.heap }

// GlobalScope exposes the root scope.
func (e *Evaluator) GlobalScope() *runtime.Environment { return e.scope }

// Executor exposes the spawn launcher so the host driver can wait for
// detached tasks to finish before the process exits.
func (e *Evaluator) Executor() *Executor { return e.executor }

// childSharing builds a new Evaluator over the given scope that points at
// the same shared heap/type/method tables — used by module import
// (§4.5.8) and thread spawn (§5). The scope is used as given: module
// import passes one from newModuleScope, spawn passes the closure's own
// scope, and both chains reach the native-function root.
func (e *Evaluator) childSharing(scope *runtime.Environment) *Evaluator {
	return &Evaluator{
		scope:    scope,
		shared:   e.shared,
		provider: e.provider,
		executor: e.executor,
	}
}

// newModuleScope returns a fresh, isolated scope parented directly on the
// native roster — no visibility into the importing script's bindings.
func (e *Evaluator) newModuleScope() *runtime.Environment {
	return runtime.NewEnvironment(e.shared.natives)
}

// Run executes a top-level statement sequence against the Evaluator's
// current scope. Each statement is evaluated in turn; a runtime error
// aborts the remaining statements (per spec.md §7, "all runtime errors
// abort the current top-level statement and are printed" — here we abort
// the whole sequence, since the driver treats the script as one unit).
func (e *Evaluator) Run(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if _, err := e.evalStatement(stmt, e.scope); err != nil {
			if _, ok := err.(returnSignal); ok {
				return fmt.Errorf("return outside function")
			}
			return err
		}
	}
	return nil
}
