// Package rewrite implements AST-level instrumentation for automatic
// field-write call insertion.
//
// This package parses Go source files, walks the AST for assignments to
// fields named in a watchconfig.Config, and inserts
// fieldwatch.TransformAndSaveFieldWrite calls immediately before each
// matching write. The scope is deliberately syntactic, the same MVP
// tradeoff the source rewriter this package is modeled on makes: without a
// full go/types pass, a field's owning type is only known where it is
// syntactically evident — a method's receiver, or a local var declared
// with an explicit type (pointer, plain, or generic) at the top level of
// the same function body. Assignments
// through interface values, results of function calls, or fields reached
// via a chain of selectors are left uninstrumented; a future pass with
// type-checker support (see DESIGN.md) can widen this.
//
// Algorithm:
//  1. Parse the Go source file using go/parser.
//  2. For every function/method declaration, infer the syntactic type of
//     its receiver and of any top-level `var name Type` or
//     `var name *Type` locals.
//  3. Walk each block of statements. For every plain assignment whose
//     left-hand side is `owner.Field` where owner's inferred type and
//     Field are both named in the config, insert a
//     fieldwatch.TransformAndSaveFieldWrite call immediately before it.
//  4. Inject the fieldwatch import if any call was inserted.
//  5. Print the modified AST back to source with go/printer.
package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"

	"github.com/kolkov/fieldwatch/internal/watchconfig"
)

const (
	// FieldwatchImportPath is the import path injected into instrumented
	// files that gained at least one TransformAndSaveFieldWrite call.
	FieldwatchImportPath = "github.com/kolkov/fieldwatch"

	// FieldwatchAlias is the local package identifier used at call sites.
	FieldwatchAlias = "fieldwatch"
)

// Stats tracks instrumentation statistics for one file.
type Stats struct {
	// FieldWritesInstrumented counts assignments that gained a capture call.
	FieldWritesInstrumented int
}

// Result holds the outcome of instrumenting one file.
type Result struct {
	// Code is the instrumented source.
	Code string

	// Stats reports what was instrumented.
	Stats Stats
}

// InstrumentFile instruments a single Go source file against cfg. src
// follows go/parser.ParseFile's conventions: nil reads from filename, or
// pass []byte/string/io.Reader directly.
func InstrumentFile(filename string, src any, cfg *watchconfig.Config) (*Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("rewrite: parse %s: %w", filename, err)
	}

	r := &rewriter{cfg: cfg}
	r.instrumentFile(file)

	if r.stats.FieldWritesInstrumented > 0 {
		injectFieldwatchImport(file)
	}

	var buf bytes.Buffer
	printerCfg := &printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := printerCfg.Fprint(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("rewrite: generate code for %s: %w", filename, err)
	}

	return &Result{Code: buf.String(), Stats: r.stats}, nil
}

type rewriter struct {
	cfg   *watchconfig.Config
	stats Stats
}

func (r *rewriter) instrumentFile(file *ast.File) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		locals := r.localTypes(fn)
		if len(locals) == 0 {
			continue
		}
		r.instrumentBlock(fn.Body, locals)
	}
}

// localTypes maps a name in scope at the top level of fn's body to its
// syntactic type name: the receiver, plus any explicitly typed `var`
// locals (`var name Type`, `var name *Type`) declared directly in the body (not inside a nested block, and not from
// `:=` — inferring a := RHS's type without go/types isn't attempted).
func (r *rewriter) localTypes(fn *ast.FuncDecl) map[string]string {
	locals := make(map[string]string)

	if fn.Recv != nil && len(fn.Recv.List) == 1 && len(fn.Recv.List[0].Names) == 1 {
		if name := syntacticTypeName(fn.Recv.List[0].Type); name != "" {
			locals[fn.Recv.List[0].Names[0].Name] = name
		}
	}

	for _, stmt := range fn.Body.List {
		declStmt, ok := stmt.(*ast.DeclStmt)
		if !ok {
			continue
		}
		genDecl, ok := declStmt.Decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.VAR {
			continue
		}
		for _, spec := range genDecl.Specs {
			valueSpec, ok := spec.(*ast.ValueSpec)
			if !ok || valueSpec.Type == nil {
				continue
			}
			name := syntacticTypeName(valueSpec.Type)
			if name == "" {
				continue
			}
			for _, ident := range valueSpec.Names {
				locals[ident.Name] = name
			}
		}
	}
	return locals
}

// syntacticTypeName extracts a bare type name from a pointer, generic
// instantiation, or plain identifier type expression, or "" if expr's
// shape isn't one this pass understands.
func syntacticTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return syntacticTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return syntacticTypeName(t.X)
	case *ast.IndexListExpr:
		return syntacticTypeName(t.X)
	default:
		return ""
	}
}

// instrumentBlock rewrites block's statement list in place, inserting a
// capture call before every matching assignment, and recurses into nested
// control-flow blocks with the same locals in scope — a shadowing
// redeclaration inside a nested block is not accounted for, matching this
// pass's syntactic, not semantic, scope resolution.
func (r *rewriter) instrumentBlock(block *ast.BlockStmt, locals map[string]string) {
	out := make([]ast.Stmt, 0, len(block.List))
	for _, stmt := range block.List {
		if call, ok := r.captureCallFor(stmt, locals); ok {
			out = append(out, call)
			r.stats.FieldWritesInstrumented++
		}
		r.recurse(stmt, locals)
		out = append(out, stmt)
	}
	block.List = out
}

// recurse descends into the nested blocks of Go's control-flow statements
// so a tracked field write inside an if/for/switch/select body is still
// found.
func (r *rewriter) recurse(stmt ast.Stmt, locals map[string]string) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.instrumentBlock(s, locals)
	case *ast.IfStmt:
		r.instrumentBlock(s.Body, locals)
		if s.Else != nil {
			r.recurse(s.Else, locals)
		}
	case *ast.ForStmt:
		r.instrumentBlock(s.Body, locals)
	case *ast.RangeStmt:
		r.instrumentBlock(s.Body, locals)
	case *ast.SwitchStmt:
		for _, clause := range s.Body.List {
			if cc, ok := clause.(*ast.CaseClause); ok {
				cc.Body = r.instrumentStmtList(cc.Body, locals)
			}
		}
	case *ast.TypeSwitchStmt:
		for _, clause := range s.Body.List {
			if cc, ok := clause.(*ast.CaseClause); ok {
				cc.Body = r.instrumentStmtList(cc.Body, locals)
			}
		}
	case *ast.SelectStmt:
		for _, clause := range s.Body.List {
			if cc, ok := clause.(*ast.CommClause); ok {
				cc.Body = r.instrumentStmtList(cc.Body, locals)
			}
		}
	}
}

// instrumentStmtList rewrites a bare []ast.Stmt in place (case clause
// bodies aren't wrapped in a *ast.BlockStmt), reusing the same two-phase
// build-a-new-slice approach as instrumentBlock.
func (r *rewriter) instrumentStmtList(list []ast.Stmt, locals map[string]string) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, stmt := range list {
		if call, ok := r.captureCallFor(stmt, locals); ok {
			out = append(out, call)
			r.stats.FieldWritesInstrumented++
		}
		r.recurse(stmt, locals)
		out = append(out, stmt)
	}
	return out
}

// captureCallFor reports whether stmt is a plain assignment to a tracked
// field through a name in locals, and if so returns the
// TransformAndSaveFieldWrite call statement to insert before it.
func (r *rewriter) captureCallFor(stmt ast.Stmt, locals map[string]string) (ast.Stmt, bool) {
	assign, ok := stmt.(*ast.AssignStmt)
	if !ok || assign.Tok != token.ASSIGN || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return nil, false
	}
	sel, ok := assign.Lhs[0].(*ast.SelectorExpr)
	if !ok {
		return nil, false
	}
	ownerIdent, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, false
	}
	ownerClass, ok := locals[ownerIdent.Name]
	if !ok {
		return nil, false
	}
	field, ok := r.cfg.Field(ownerClass, sel.Sel.Name)
	if !ok {
		return nil, false
	}

	call := &ast.ExprStmt{
		X: &ast.CallExpr{
			Fun: &ast.SelectorExpr{
				X:   ast.NewIdent(FieldwatchAlias),
				Sel: ast.NewIdent("TransformAndSaveFieldWrite"),
			},
			Args: []ast.Expr{
				assign.Rhs[0],
				ast.NewIdent(ownerIdent.Name),
				&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(ownerClass)},
				&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(field.Field)},
				boolLit(field.CaptureStack),
			},
		},
	}
	return call, true
}

func boolLit(b bool) ast.Expr {
	if b {
		return ast.NewIdent("true")
	}
	return ast.NewIdent("false")
}
