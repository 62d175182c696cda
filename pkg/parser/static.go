package parser

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/token"

	"escore/pkg/errors"
)

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
	DeclFunction
	DeclClass
)

func (k DeclKind) String() string {
	switch k {
	case DeclVar:
		return "var"
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	case DeclFunction:
		return "function"
	case DeclClass:
		return "class"
	}
	return "unknown"
}

// Declaration is one scoped declaration with its bound names.
type Declaration struct {
	Kind  DeclKind
	Names []string

	// Exactly one of these is set, depending on Kind.
	Binding  *ast.Binding
	Function *ast.FunctionLiteral
	Class    *ast.ClassLiteral
}

// IsConstantDeclaration reports whether the declaration creates immutable
// bindings.
func (d *Declaration) IsConstantDeclaration() bool { return d.Kind == DeclConst }

// BoundNames returns the identifiers bound by a binding target.
func BoundNames(target ast.Expression) []string {
	var names []string
	collectBoundNames(target, &names)
	return names
}

func collectBoundNames(target ast.Expression, names *[]string) {
	switch t := target.(type) {
	case nil:
	case *ast.Identifier:
		*names = append(*names, t.Name.String())
	case *ast.AssignExpression:
		collectBoundNames(t.Left, names)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			collectBoundNames(el, names)
		}
		collectBoundNames(t.Rest, names)
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			switch p := prop.(type) {
			case *ast.PropertyShort:
				*names = append(*names, p.Name.Name.String())
			case *ast.PropertyKeyed:
				collectBoundNames(p.Value, names)
			}
		}
		collectBoundNames(t.Rest, names)
	}
}

func boundNamesOf(decls []*Declaration) []string {
	var names []string
	for _, d := range decls {
		names = append(names, d.Names...)
	}
	return names
}

func bindingDecls(kind DeclKind, list []*ast.Binding) []*Declaration {
	out := make([]*Declaration, 0, len(list))
	for _, b := range list {
		out = append(out, &Declaration{Kind: kind, Names: BoundNames(b.Target), Binding: b})
	}
	return out
}

func lexicalKind(tok token.Token) DeclKind {
	if tok == token.CONST {
		return DeclConst
	}
	return DeclLet
}

func functionDecl(fn *ast.FunctionLiteral) *Declaration {
	d := &Declaration{Kind: DeclFunction, Function: fn}
	if fn.Name != nil {
		d.Names = []string{fn.Name.Name.String()}
	}
	return d
}

func classDecl(cls *ast.ClassLiteral) *Declaration {
	d := &Declaration{Kind: DeclClass, Class: cls}
	if cls.Name != nil {
		d.Names = []string{cls.Name.Name.String()}
	}
	return d
}

// topLevelLexicalDeclarations implements TopLevelLexicallyScopedDeclarations:
// function declarations at the top level are var scoped.
func topLevelLexicalDeclarations(body []ast.Statement) []*Declaration {
	var out []*Declaration
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.LexicalDeclaration:
			out = append(out, bindingDecls(lexicalKind(s.Token), s.List)...)
		case *ast.ClassDeclaration:
			out = append(out, classDecl(s.Class))
		}
	}
	return out
}

// topLevelVarDeclarations implements TopLevelVarScopedDeclarations.
func topLevelVarDeclarations(body []ast.Statement) []*Declaration {
	var out []*Declaration
	for _, stmt := range body {
		out = appendTopLevelVar(out, stmt)
	}
	return out
}

func appendTopLevelVar(out []*Declaration, stmt ast.Statement) []*Declaration {
	switch s := stmt.(type) {
	case *ast.FunctionDeclaration:
		return append(out, functionDecl(s.Function))
	case *ast.LabelledStatement:
		return appendTopLevelVar(out, s.Statement)
	}
	return appendVarScoped(out, stmt)
}

// BlockDeclarations implements LexicallyScopedDeclarations of a statement
// list inside a block, case clause or loop body: function declarations
// are block scoped there.
func BlockDeclarations(list []ast.Statement) []*Declaration {
	var out []*Declaration
	for _, stmt := range list {
		out = appendBlockDecl(out, stmt)
	}
	return out
}

func appendBlockDecl(out []*Declaration, stmt ast.Statement) []*Declaration {
	switch s := stmt.(type) {
	case *ast.LexicalDeclaration:
		return append(out, bindingDecls(lexicalKind(s.Token), s.List)...)
	case *ast.ClassDeclaration:
		return append(out, classDecl(s.Class))
	case *ast.FunctionDeclaration:
		return append(out, functionDecl(s.Function))
	case *ast.LabelledStatement:
		return appendBlockDecl(out, s.Statement)
	}
	return out
}

// VarScopedDeclarations implements VarScopedDeclarations of a statement
// list: var bindings anywhere outside nested functions.
func VarScopedDeclarations(list []ast.Statement) []*Declaration {
	var out []*Declaration
	for _, stmt := range list {
		out = appendVarScoped(out, stmt)
	}
	return out
}

func appendVarScoped(out []*Declaration, stmt ast.Statement) []*Declaration {
	switch s := stmt.(type) {
	case *ast.VariableStatement:
		return append(out, bindingDecls(DeclVar, s.List)...)
	case *ast.BlockStatement:
		for _, inner := range s.List {
			out = appendVarScoped(out, inner)
		}
	case *ast.IfStatement:
		out = appendVarScoped(out, s.Consequent)
		if s.Alternate != nil {
			out = appendVarScoped(out, s.Alternate)
		}
	case *ast.DoWhileStatement:
		out = appendVarScoped(out, s.Body)
	case *ast.WhileStatement:
		out = appendVarScoped(out, s.Body)
	case *ast.ForStatement:
		if init, ok := s.Initializer.(*ast.ForLoopInitializerVarDeclList); ok {
			out = append(out, bindingDecls(DeclVar, init.List)...)
		}
		out = appendVarScoped(out, s.Body)
	case *ast.ForInStatement:
		if into, ok := s.Into.(*ast.ForIntoVar); ok {
			out = append(out, bindingDecls(DeclVar, []*ast.Binding{into.Binding})...)
		}
		out = appendVarScoped(out, s.Body)
	case *ast.ForOfStatement:
		if into, ok := s.Into.(*ast.ForIntoVar); ok {
			out = append(out, bindingDecls(DeclVar, []*ast.Binding{into.Binding})...)
		}
		out = appendVarScoped(out, s.Body)
	case *ast.WithStatement:
		out = appendVarScoped(out, s.Body)
	case *ast.LabelledStatement:
		out = appendVarScoped(out, s.Statement)
	case *ast.SwitchStatement:
		for _, c := range s.Body {
			for _, inner := range c.Consequent {
				out = appendVarScoped(out, inner)
			}
		}
	case *ast.TryStatement:
		out = appendVarScoped(out, s.Body)
		if s.Catch != nil {
			out = appendVarScoped(out, s.Catch.Body)
		}
		if s.Finally != nil {
			out = appendVarScoped(out, s.Finally)
		}
	}
	return out
}

// earlyErrors reports the script-level declaration conflicts the grammar
// cannot catch: duplicate lexical names and lexical names that are also
// var declared.
func (p *Program) earlyErrors() errors.ErrorList {
	var errs errors.ErrorList
	seen := make(map[string]bool, len(p.LexicallyDeclaredNames))
	for _, d := range p.LexicallyScopedDeclarations {
		for _, name := range d.Names {
			if seen[name] {
				errs = append(errs, p.redeclared(d, name))
				continue
			}
			seen[name] = true
		}
	}
	for _, d := range p.VarScopedDeclarations {
		for _, name := range d.Names {
			if seen[name] {
				errs = append(errs, p.redeclared(d, name))
			}
		}
	}
	return errs
}

func (p *Program) redeclared(d *Declaration, name string) errors.EngineError {
	var idx file.Idx
	switch {
	case d.Binding != nil:
		idx = d.Binding.Idx0()
	case d.Function != nil:
		idx = d.Function.Idx0()
	case d.Class != nil:
		idx = d.Class.Idx0()
	}
	return &errors.SyntaxError{
		Position: p.Position(idx),
		Msg:      fmt.Sprintf("Identifier '%s' has already been declared", name),
	}
}

// CheckBlockDeclarations reports duplicate lexical names within one block
// and lexical names that collide with var declarations of the same block.
// It returns the first offending name.
func CheckBlockDeclarations(lexical, vars []*Declaration) (string, bool) {
	seen := make(map[string]bool)
	for _, d := range lexical {
		for _, name := range d.Names {
			if seen[name] {
				return name, false
			}
			seen[name] = true
		}
	}
	for _, d := range vars {
		for _, name := range d.Names {
			if seen[name] {
				return name, false
			}
		}
	}
	return "", true
}
