package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/lexer"
)

func parseSource(t *testing.T, src string) ([]ast.Statement, []Diagnostic) {
	t.Helper()
	tokens, lexDiags := lexer.New(src).Scan()
	require.Empty(t, lexDiags)
	return New(tokens).Parse()
}

func TestParseLetStatement(t *testing.T) {
	stmts, diags := parseSource(t, "let mutable x = 1\n")
	require.Empty(t, diags)
	require.Len(t, stmts, 1)
	let, ok := stmts[0].(*ast.Let)
	require.True(t, ok)
	require.Equal(t, "x", let.Name)
	require.True(t, let.Mutable)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	stmts, diags := parseSource(t, "1 + 2 * 3\n")
	require.Empty(t, diags)
	bin := stmts[0].(*ast.ExprStmt).Expr.(*ast.Binary)
	require.Equal(t, "+", bin.Op)
	rightMul, ok := bin.Right.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, "*", rightMul.Op)
}

func TestParseIfWithElseResolvesOptionalElse(t *testing.T) {
	src := "if x:\n    print 1\nelse:\n    print 2\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	ifStmt := stmts[0].(*ast.If)
	require.NotNil(t, ifStmt.Else)
}

func TestParseIfWithoutElseLeavesElseNil(t *testing.T) {
	src := "if x:\n    print 1\nprint 2\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	ifStmt := stmts[0].(*ast.If)
	require.Nil(t, ifStmt.Else)
	require.Len(t, stmts, 2)
}

func TestParseAssignmentRewritesVariableTarget(t *testing.T) {
	stmts, diags := parseSource(t, "x = 1\n")
	require.Empty(t, diags)
	assign, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Assign)
	require.True(t, ok)
	require.Equal(t, "x", assign.Name)
}

func TestParseAssignmentRewritesGetTargetIntoSet(t *testing.T) {
	stmts, diags := parseSource(t, "obj.field = 1\n")
	require.Empty(t, diags)
	set, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Set)
	require.True(t, ok)
	require.Equal(t, "field", set.Name)
}

func TestParseAssignmentRewritesDereferenceTargetIntoPointerSet(t *testing.T) {
	stmts, diags := parseSource(t, "p.* = 1\n")
	require.Empty(t, diags)
	ps, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.PointerSet)
	require.True(t, ok)
	_, isVar := ps.Pointer.(*ast.Variable)
	require.True(t, isVar)
}

func TestParseInvalidAssignmentTargetReportsDiagnostic(t *testing.T) {
	_, diags := parseSource(t, "1 = 2\n")
	require.NotEmpty(t, diags)
}

func TestParseAddressOfRequiresBareIdentifier(t *testing.T) {
	stmts, diags := parseSource(t, "let mutable p = *x\n")
	require.Empty(t, diags)
	let := stmts[0].(*ast.Let)
	addr, ok := let.Initializer.(*ast.AddressOf)
	require.True(t, ok)
	require.Equal(t, "x", addr.Name)
}

func TestParseListLiteral(t *testing.T) {
	stmts, diags := parseSource(t, "[1, 2, 3]\n")
	require.Empty(t, diags)
	list, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.ListLit)
	require.True(t, ok)
	require.Len(t, list.Elements, 3)
}

func TestParseLambdaWithCaptures(t *testing.T) {
	src := "[x, *y](n):\n    return n\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	lambda, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Lambda)
	require.True(t, ok)
	require.Len(t, lambda.Captures, 2)
	require.False(t, lambda.Captures[0].ByAddress)
	require.True(t, lambda.Captures[1].ByAddress)
	require.Equal(t, []string{"n"}, lambda.Params)
}

func TestParseEmptyCaptureLambdaIsNotConfusedWithEmptyList(t *testing.T) {
	stmts, diags := parseSource(t, "[](n):\n    return n\n")
	require.Empty(t, diags)
	_, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Lambda)
	require.True(t, ok)
}

func TestParseMapLiteral(t *testing.T) {
	stmts, diags := parseSource(t, "#{@a => 1, @b => 2}\n")
	require.Empty(t, diags)
	m, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.MapLit)
	require.True(t, ok)
	require.Len(t, m.Keys, 2)
}

func TestParseTupleLiteral(t *testing.T) {
	stmts, diags := parseSource(t, `{@ok, 200, "OK"}` + "\n")
	require.Empty(t, diags)
	tuple, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Tuple)
	require.True(t, ok)
	require.Len(t, tuple.Elements, 3)
}

func TestParseTypeDeclaration(t *testing.T) {
	src := "type Point = struct {\n    x: int,\n    y: int\n}\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	td, ok := stmts[0].(*ast.TypeDecl)
	require.True(t, ok)
	require.Equal(t, ast.TypeKindStruct, td.Kind)
	require.Equal(t, []string{"x", "y"}, td.Fields)
}

func TestParseImplDeclaration(t *testing.T) {
	src := "impl Point:\n    fun sum():\n        return 1\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	impl, ok := stmts[0].(*ast.Impl)
	require.True(t, ok)
	require.Equal(t, "Point", impl.TypeName)
	require.Len(t, impl.Methods, 1)
}

func TestParseMethodCallChain(t *testing.T) {
	stmts, diags := parseSource(t, "obj.method(1, 2).other\n")
	require.Empty(t, diags)
	get, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Get)
	require.True(t, ok)
	require.Equal(t, "other", get.Name)
	_, isCall := get.Object.(*ast.Call)
	require.True(t, isCall)
}

func TestParseDereferencePostfix(t *testing.T) {
	stmts, diags := parseSource(t, "p.*\n")
	require.Empty(t, diags)
	_, ok := stmts[0].(*ast.ExprStmt).Expr.(*ast.Dereference)
	require.True(t, ok)
}

func TestParseSyntaxErrorResynchronizesAtNextStatement(t *testing.T) {
	src := "let x = \nlet y = 2\n"
	stmts, diags := parseSource(t, src)
	require.NotEmpty(t, diags)
	require.Len(t, stmts, 1)
	let, ok := stmts[0].(*ast.Let)
	require.True(t, ok)
	require.Equal(t, "y", let.Name)
}

func TestParseImportStatement(t *testing.T) {
	src := `import "mod.pz" as Mod` + "\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	imp, ok := stmts[0].(*ast.Import)
	require.True(t, ok)
	require.Equal(t, "mod.pz", imp.Path)
	require.Equal(t, "Mod", imp.Alias)
}

func TestParseBareReturnDetectsEndOfBlock(t *testing.T) {
	src := "fun f():\n    return\n"
	stmts, diags := parseSource(t, src)
	require.Empty(t, diags)
	fn := stmts[0].(*ast.Function)
	ret, ok := fn.Body[0].(*ast.Return)
	require.True(t, ok)
	require.Nil(t, ret.Value)
}
