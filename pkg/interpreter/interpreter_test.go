package interpreter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devgithub-sl/ponzlang/pkg/lexer"
	"github.com/devgithub-sl/ponzlang/pkg/parser"
	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

// fakeProvider answers ReadSource from an in-memory map, so module-import
// tests don't touch the filesystem.
type fakeProvider struct {
	files map[string]string
}

func (p *fakeProvider) ReadSource(path string) (string, error) {
	src, ok := p.files[path]
	if !ok {
		return "", fmt.Errorf("no source registered for %q", path)
	}
	return src, nil
}

func run(t *testing.T, eval *Evaluator, src string) error {
	t.Helper()
	tokens, lexDiags := lexer.New(src).Scan()
	require.Empty(t, lexDiags)
	stmts, diags := parser.New(tokens).Parse()
	require.Empty(t, diags)
	return eval.Run(stmts)
}

func TestRunArithmeticAndLet(t *testing.T) {
	eval := New(&fakeProvider{})
	err := run(t, eval, "let x = 1 + 2 * 3\nlet y = x - 1\n")
	require.NoError(t, err)
	v, err := eval.GlobalScope().Get("y")
	require.NoError(t, err)
	require.Equal(t, int32(6), v.(runtime.PrimInt).Val)
}

func TestRunReturnedClassReferenceSurvivesFrameExit(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Counter = class {
    n: int
}
fun make():
    let c = new Counter(0)
    return c

let a = make()
`
	err := run(t, eval, src)
	require.NoError(t, err)
	a, err := eval.GlobalScope().Get("a")
	require.NoError(t, err)
	ref := a.(runtime.ClassRefValue)
	payload, derefErr := eval.Heap().Dereference(ref.Address)
	require.NoError(t, derefErr)
	require.Equal(t, int32(0), payload.Fields["n"].(runtime.PrimInt).Val)
}

func TestRunReturnedClassReferenceThroughIfBlockSurvivesFrameExit(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Counter = class {
    n: int
}
fun make():
    if 1:
        let c = new Counter(5)
        return c
    return new Counter(9)

let a = make()
`
	err := run(t, eval, src)
	require.NoError(t, err)
	a, err := eval.GlobalScope().Get("a")
	require.NoError(t, err)
	ref := a.(runtime.ClassRefValue)
	payload, derefErr := eval.Heap().Dereference(ref.Address)
	require.NoError(t, derefErr)
	require.Equal(t, int32(5), payload.Fields["n"].(runtime.PrimInt).Val)
}

func TestRunPrintEscapesNestedStringsInsideTuple(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `let pair = {"a\tb", "x\ny"}` + "\n"
	err := run(t, eval, src)
	require.NoError(t, err)
	pair, err := eval.GlobalScope().Get("pair")
	require.NoError(t, err)
	require.Equal(t, "{a\tb, x\ny}", runtime.Stringify(pair, eval.Heap()))
}

func TestRunClassReferenceSharing(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Counter = class {
    n: int
}
impl Counter:
    fun bump():
        this.n = this.n + 1

let a = new Counter(0)
let b = a
b.bump()
`
	err := run(t, eval, src)
	require.NoError(t, err)
	a, err := eval.GlobalScope().Get("a")
	require.NoError(t, err)
	ref := a.(runtime.ClassRefValue)
	payload, derefErr := eval.Heap().Dereference(ref.Address)
	require.NoError(t, derefErr)
	require.Equal(t, int32(1), payload.Fields["n"].(runtime.PrimInt).Val)
}

func TestRunStructValueSemanticsCopyOnAssign(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Point = struct {
    x: int,
    y: int
}
let a = new Point(1, 2)
let mutable b = a
b.x = 99
`
	err := run(t, eval, src)
	require.NoError(t, err)
	a, err := eval.GlobalScope().Get("a")
	require.NoError(t, err)
	require.Equal(t, int32(1), a.(*runtime.StructValue).Fields["x"].(runtime.PrimInt).Val)
	b, err := eval.GlobalScope().Get("b")
	require.NoError(t, err)
	require.Equal(t, int32(99), b.(*runtime.StructValue).Fields["x"].(runtime.PrimInt).Val)
}

func TestRunClosureCapturesByCopy(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
let n = 1
let f = [n](x):
    return n + x
let n = 100
let result = f(1)
`
	err := run(t, eval, src)
	require.NoError(t, err)
	result, err := eval.GlobalScope().Get("result")
	require.NoError(t, err)
	require.Equal(t, int32(2), result.(runtime.PrimInt).Val)
}

func TestRunClosureCapturesByAddressSeesMutation(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
let mutable n = 1
let f = [*n](x):
    return n.* + x
n = 100
let result = f(1)
`
	err := run(t, eval, src)
	require.NoError(t, err)
	result, err := eval.GlobalScope().Get("result")
	require.NoError(t, err)
	require.Equal(t, int32(101), result.(runtime.PrimInt).Val)
}

func TestRunTupleAndMapStringification(t *testing.T) {
	eval := New(&fakeProvider{})
	src := "let status = {@ok, 200, \"OK\"}\nlet codes = #{@a => 1, @b => 2}\n"
	err := run(t, eval, src)
	require.NoError(t, err)
	v, err := eval.GlobalScope().Get("status")
	require.NoError(t, err)
	require.Equal(t, "{@ok, 200, OK}", runtime.Stringify(v, eval.Heap()))
	m, err := eval.GlobalScope().Get("codes")
	require.NoError(t, err)
	require.Equal(t, "#{@a => 1, @b => 2}", runtime.Stringify(m, eval.Heap()))
}

func TestRunListGetPushInvariant(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
let mutable l = [1, 2, 3]
push(l, 4)
let last = get(l, len(l) - 1)
`
	err := run(t, eval, src)
	require.NoError(t, err)
	last, err := eval.GlobalScope().Get("last")
	require.NoError(t, err)
	require.Equal(t, int32(4), last.(runtime.PrimInt).Val)
}

func TestRunNonLocalReturnStopsAtCallBoundary(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
fun early():
    if 1:
        return 1
    return 2

let result = early()
`
	err := run(t, eval, src)
	require.NoError(t, err)
	result, err := eval.GlobalScope().Get("result")
	require.NoError(t, err)
	require.Equal(t, int32(1), result.(runtime.PrimInt).Val)
}

func TestRunTopLevelReturnIsAnError(t *testing.T) {
	eval := New(&fakeProvider{})
	err := run(t, eval, "return 1\n")
	require.Error(t, err)
}

func TestRunMethodDispatchPrefersFieldCallable(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Box = class {
    greet: function
}
impl Box:
    fun greet():
        return "method"

let fieldGreeter = []():
    return "field"
let b = new Box(fieldGreeter)
let result = b.greet()
`
	err := run(t, eval, src)
	require.NoError(t, err)
	result, err := eval.GlobalScope().Get("result")
	require.NoError(t, err)
	require.Equal(t, "field", result.(runtime.PrimString).Val)
}

func TestRunDeleteIsAcceptedAsANoOp(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Counter = class {
    n: int
}
let a = new Counter(0)
delete a
`
	err := run(t, eval, src)
	require.NoError(t, err)
	require.Equal(t, int64(1), eval.Heap().Live())
	require.Equal(t, int64(0), eval.Heap().Freed())
	a, err := eval.GlobalScope().Get("a")
	require.NoError(t, err)
	require.Equal(t, "Counter", a.(runtime.ClassRefValue).TypeName)
}

func TestRunSpawnDetachedTaskCompletesBeforeWait(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
let mutable total = 0
let task = [*total]():
    total.* = total.* + 1
spawn(task)
`
	err := run(t, eval, src)
	require.NoError(t, err)
	eval.Executor().Wait()
	total, err := eval.GlobalScope().Get("total")
	require.NoError(t, err)
	require.Equal(t, int32(1), total.(runtime.PrimInt).Val)
}

func TestNativeTypeOfAndStr(t *testing.T) {
	eval := New(&fakeProvider{})
	src := `
type Point = struct {
    x: int
}
let p = new Point(1)
let kind = type_of(p)
let text = str(p)
`
	err := run(t, eval, src)
	require.NoError(t, err)
	kind, err := eval.GlobalScope().Get("kind")
	require.NoError(t, err)
	require.Equal(t, "Point", kind.(runtime.PrimString).Val)
	text, err := eval.GlobalScope().Get("text")
	require.NoError(t, err)
	require.Equal(t, "Point{x: 1}", text.(runtime.PrimString).Val)
}

func TestNativeGetOutOfBoundsReportsIndexError(t *testing.T) {
	eval := New(&fakeProvider{})
	err := run(t, eval, "let l = [1]\nlet x = get(l, 5)\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "IndexError")
}

func TestImportIsolatesModuleScopeFromImporter(t *testing.T) {
	provider := &fakeProvider{files: map[string]string{
		"mod.pz": "let secret = 42\n",
	}}
	eval := New(provider)
	err := run(t, eval, `import "mod.pz" as Mod`)
	require.NoError(t, err)
	_, ok := eval.GlobalScope().Get("secret")
	require.Error(t, ok)
}
