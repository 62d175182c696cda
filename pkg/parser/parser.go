// Package parser turns source text into goja syntax trees annotated with
// the static semantics the core relies on: declared-name lists, scoped
// declarations and strictness.
package parser

import (
	stderrors "errors"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	jsparser "github.com/dop251/goja/parser"

	"escore/pkg/errors"
	"escore/pkg/source"
)

const debugParser = false

func debugPrint(format string, args ...interface{}) {
	if debugParser {
		fmt.Printf("[Parser Debug] "+format+"\n", args...)
	}
}

// Goal selects the grammar goal symbol.
type Goal uint8

const (
	GoalScript Goal = iota
	GoalModule
)

// Program is a parsed script body with its top-level static semantics.
type Program struct {
	AST    *ast.Program
	Source *source.SourceFile
	Strict bool

	// LexicallyDeclaredNames and LexicallyScopedDeclarations cover let,
	// const and class at the top level.
	LexicallyDeclaredNames      []string
	LexicallyScopedDeclarations []*Declaration

	// VarDeclaredNames and VarScopedDeclarations cover var bindings and
	// top-level function declarations.
	VarDeclaredNames      []string
	VarScopedDeclarations []*Declaration

	functions map[ast.Node]*FunctionCode
}

// Options adjusts parsing.
type Options struct {
	// Strict forces strict mode code regardless of directives.
	Strict bool
}

// Parse parses src for the given goal. Syntax errors and early errors are
// returned as an errors.ErrorList.
func Parse(src *source.SourceFile, goal Goal, opts Options) (*Program, error) {
	if goal == GoalModule {
		return nil, errors.ErrorList{&errors.SyntaxError{
			Position: errors.Position{Line: 1, Column: 1, Source: src},
			Msg:      "modules are not supported",
		}}
	}
	fset := &file.FileSet{}
	prog, err := jsparser.ParseFile(fset, src.DisplayPath(), src.Content, jsparser.IgnoreRegExpErrors, jsparser.WithDisableSourceMaps)
	if err != nil {
		return nil, convertParseError(src, err)
	}
	debugPrint("parsed %s: %d statements", src.DisplayPath(), len(prog.Body))

	p := &Program{
		AST:       prog,
		Source:    src,
		Strict:    opts.Strict || hasUseStrict(prog.Body),
		functions: make(map[ast.Node]*FunctionCode),
	}
	p.LexicallyScopedDeclarations = topLevelLexicalDeclarations(prog.Body)
	p.LexicallyDeclaredNames = boundNamesOf(p.LexicallyScopedDeclarations)
	p.VarScopedDeclarations = topLevelVarDeclarations(prog.Body)
	p.VarDeclaredNames = boundNamesOf(p.VarScopedDeclarations)

	if errs := p.earlyErrors(); len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// Position converts a node offset into a host position.
func (p *Program) Position(idx file.Idx) errors.Position {
	pos := p.AST.File.Position(int(idx) - p.AST.File.Base())
	return errors.Position{Line: pos.Line, Column: pos.Column, StartPos: int(idx) - p.AST.File.Base(), Source: p.Source}
}

// Function returns the static semantics of a function node (a
// FunctionLiteral or ArrowFunctionLiteral) declared in this program.
// outerStrict is the strictness of the enclosing code. Results are cached
// per node.
func (p *Program) Function(node ast.Node, outerStrict bool) *FunctionCode {
	if fc, ok := p.functions[node]; ok {
		return fc
	}
	fc := newFunctionCode(node, outerStrict)
	p.functions[node] = fc
	return fc
}

func convertParseError(src *source.SourceFile, err error) error {
	var list jsparser.ErrorList
	if stderrors.As(err, &list) {
		out := make(errors.ErrorList, 0, len(list))
		for _, e := range list {
			out = append(out, &errors.SyntaxError{
				Position: errors.Position{Line: e.Position.Line, Column: e.Position.Column, Source: src},
				Msg:      e.Message,
			})
		}
		return out
	}
	var single *jsparser.Error
	if stderrors.As(err, &single) {
		return errors.ErrorList{&errors.SyntaxError{
			Position: errors.Position{Line: single.Position.Line, Column: single.Position.Column, Source: src},
			Msg:      single.Message,
		}}
	}
	return errors.ErrorList{(&errors.SyntaxError{
		Position: errors.Position{Source: src},
		Msg:      err.Error(),
	}).CausedBy(err)}
}

// hasUseStrict reports whether a directive prologue contains "use strict".
func hasUseStrict(body []ast.Statement) bool {
	for _, stmt := range body {
		es, ok := stmt.(*ast.ExpressionStatement)
		if !ok {
			return false
		}
		lit, ok := es.Expression.(*ast.StringLiteral)
		if !ok {
			return false
		}
		if lit.Literal == `"use strict"` || lit.Literal == `'use strict'` {
			return true
		}
	}
	return false
}
