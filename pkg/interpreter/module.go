package interpreter

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/lexer"
	"github.com/devgithub-sl/ponzlang/pkg/parser"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
)

// evalImport implements spec.md §4.5.8: load the file at n.Path through
// the host SourceProvider, run Lexer→Parser→Evaluator against a fresh
// scope sharing this Engine's heap/type/method tables, snapshot the
// module scope's direct bindings, and bind the alias to a "Module"
// Struct built from that snapshot.
func (e *Evaluator) evalImport(n *ast.Import, scope *runtime.Environment) (runtime.Value, error) {
	src, err := e.provider.ReadSource(n.Path)
	if err != nil {
		return nil, fmt.Errorf("Could not import module '%s': %s", n.Path, err)
	}

	tokens, lexDiags := lexer.New(src).Scan()
	if len(lexDiags) > 0 {
		return nil, fmt.Errorf("Could not import module '%s': %s", n.Path, lexDiags[0])
	}
	stmts, parseDiags := parser.New(tokens).Parse()
	if len(parseDiags) > 0 {
		return nil, fmt.Errorf("Could not import module '%s': %s", n.Path, parseDiags[0])
	}

	moduleScope := e.newModuleScope()
	moduleEval := e.childSharing(moduleScope)
	for _, stmt := range stmts {
		if _, err := moduleEval.evalStatement(stmt, moduleScope); err != nil {
			return nil, fmt.Errorf("Could not import module '%s': %s", n.Path, err)
		}
	}

	exports := moduleScope.Exports()
	fieldOrder := make([]string, 0, len(exports))
	for name := range exports {
		fieldOrder = append(fieldOrder, name)
	}
	mod := runtime.NewStruct("Module", fieldOrder)
	for name, v := range exports {
		mod.Fields[name] = v
	}

	stored := e.bindInto(mod, nil)
	scope.Define(n.Alias, stored, false)
	return runtime.NullValue{}, nil
}
