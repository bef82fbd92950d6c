package http

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// Multipart bodies may spill to temp files, so every handler that parses a
// body must defer Close on the parser.
func TestHandlersCloseParsedBody(t *testing.T) {
	files, err := filepath.Glob("handlers_*.go")
	if err != nil {
		t.Fatal(err)
	}

	fset := token.NewFileSet()
	checked := 0
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, 0)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			parsed, closed := parsedBodies(fn.Body)
			for v := range parsed {
				checked++
				if !closed[v] {
					t.Errorf("%s: %s does not defer %s.Close()", name, fn.Name.Name, v)
				}
			}
		}
	}
	if checked == 0 {
		t.Fatal("no parseBody calls found")
	}
}

// parsedBodies returns the variables assigned from s.parseBody and those
// with a deferred Close.
func parsedBodies(body *ast.BlockStmt) (parsed, closed map[string]bool) {
	parsed = make(map[string]bool)
	closed = make(map[string]bool)
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if len(n.Rhs) != 1 || len(n.Lhs) == 0 {
				return true
			}
			call, ok := n.Rhs[0].(*ast.CallExpr)
			if !ok {
				return true
			}
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "parseBody" {
				if id, ok := n.Lhs[0].(*ast.Ident); ok {
					parsed[id.Name] = true
				}
			}
		case *ast.DeferStmt:
			if sel, ok := n.Call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Close" {
				if id, ok := sel.X.(*ast.Ident); ok {
					closed[id.Name] = true
				}
			}
		}
		return true
	})
	return parsed, closed
}
