// Package rewrite - import injection functionality.
//
// This file implements import injection logic for adding the fieldwatch
// package import to instrumented files.
package rewrite

import (
	"go/ast"
	"go/token"
	"strconv"
)

// injectFieldwatchImport adds the fieldwatch import to file if it isn't
// already present, handling both grouped and single-import styles, and
// creating an import block if file has none.
func injectFieldwatchImport(file *ast.File) {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if path == FieldwatchImportPath {
			return
		}
	}

	var importDecl *ast.GenDecl
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if ok && genDecl.Tok == token.IMPORT {
			importDecl = genDecl
			break
		}
	}

	if importDecl == nil {
		importDecl = &ast.GenDecl{Tok: token.IMPORT, Lparen: 1}
		file.Decls = append([]ast.Decl{importDecl}, file.Decls...)
	}

	importDecl.Specs = append(importDecl.Specs, &ast.ImportSpec{
		Name: ast.NewIdent(FieldwatchAlias),
		Path: &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(FieldwatchImportPath)},
	})

	if importDecl.Lparen == 0 && len(importDecl.Specs) > 1 {
		importDecl.Lparen = 1
	}

	file.Imports = nil
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.IMPORT {
			continue
		}
		for _, spec := range genDecl.Specs {
			if impSpec, ok := spec.(*ast.ImportSpec); ok {
				file.Imports = append(file.Imports, impSpec)
			}
		}
	}
}
