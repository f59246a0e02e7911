package interpreter

import "github.com/devgithub-sl/ponzlang/pkg/runtime"

// returnSignal is the non-local control value spec.md §4.5.4/§7 describes:
// not a general exception facility, just a typed value satisfying Go's
// error interface so it can propagate upward through evalStatement's
// ordinary error return until the nearest enclosing call frame catches it.
type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return" }
