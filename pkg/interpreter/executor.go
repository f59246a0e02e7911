package interpreter

import (
	"fmt"
	"sync"

	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

// Executor is the host-provided task launcher spec.md §5 names: it runs a
// spawned Function's body on a new goroutine, sharing the program's heap
// and type/method tables but isolating scope, as a detached task. Modeled
// on the teacher's GoroutineExecutor (pkg/interpreter/executor.go), minus
// the proc-handle/future bookkeeping the Language has no surface for.
type Executor struct {
	owner *Evaluator
	wg    sync.WaitGroup
}

// NewExecutor builds an Executor bound to the Evaluator that owns the
// program's shared state; spawned tasks get their own Evaluator sharing
// that state via childSharing.
func NewExecutor(owner *Evaluator) *Executor {
	return &Executor{owner: owner}
}

// Spawn launches fn's body on a new goroutine against an Evaluator that
// shares the owner's heap and type/method tables but runs against fn's
// own captured closure scope. A panic inside the task is recovered and
// printed to the diagnostic channel, per spec.md §5's "an uncaught error
// ... is printed to the diagnostic channel and ends the task."
func (x *Executor) Spawn(fn *runtime.FunctionValue) {
	x.wg.Add(1)
	task := x.owner.childSharing(fn.Closure)
	go func() {
		defer x.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(stderrWriter, "panic in spawned task: %v\n", r)
			}
		}()
		if _, err := task.invokeFunction(fn, nil, nil); err != nil {
			fmt.Fprintf(stderrWriter, "%s\n", err)
		}
	}()
}

// Wait blocks until every spawned task has finished. Not part of the
// Language surface — the host driver calls it on process exit so
// detached tasks get a chance to run to completion before the process
// ends, and tests use it to make spawn's effects observable.
func (x *Executor) Wait() { x.wg.Wait() }
