package parser

import (
	"github.com/dop251/goja/ast"
)

// FunctionCode is the static semantics of one function, arrow function or
// method body, computed once and shared by every closure created from it.
type FunctionCode struct {
	Node  ast.Node
	Name  string
	Arrow bool

	Params []*ast.Binding
	Rest   ast.Expression

	// Body is the statement list; ExpressionBody is set instead for
	// concise arrow bodies.
	Body           []ast.Statement
	ExpressionBody ast.Expression

	Source    string
	Strict    bool
	Async     bool
	Generator bool

	ParameterNames          []string
	SimpleParameterList     bool
	HasParameterExpressions bool
	HasDuplicates           bool
	ExpectedArgumentCount   int

	VarNames            []string
	VarDeclarations     []*Declaration
	LexicalNames        []string
	LexicalDeclarations []*Declaration

	// FunctionsToInitialize lists the last declaration for each distinct
	// function name, in reverse source order.
	FunctionsToInitialize []*ast.FunctionLiteral

	ArgumentsObjectNeeded bool
}

func newFunctionCode(node ast.Node, outerStrict bool) *FunctionCode {
	fc := &FunctionCode{Node: node}
	var params *ast.ParameterList
	switch n := node.(type) {
	case *ast.FunctionLiteral:
		if n.Name != nil {
			fc.Name = n.Name.Name.String()
		}
		params = n.ParameterList
		if n.Body != nil {
			fc.Body = n.Body.List
		}
		fc.Source = n.Source
		fc.Async, fc.Generator = n.Async, n.Generator
	case *ast.ArrowFunctionLiteral:
		fc.Arrow = true
		params = n.ParameterList
		switch body := n.Body.(type) {
		case *ast.BlockStatement:
			fc.Body = body.List
		case *ast.ExpressionBody:
			fc.ExpressionBody = body.Expression
		}
		fc.Source = n.Source
		fc.Async = n.Async
	default:
		panic("parser: not a function node")
	}
	if params != nil {
		fc.Params = params.List
		fc.Rest = params.Rest
	}
	fc.Strict = outerStrict || hasUseStrict(fc.Body)

	fc.SimpleParameterList = fc.Rest == nil
	seen := make(map[string]bool)
	counting := true
	for _, p := range fc.Params {
		if _, ok := p.Target.(*ast.Identifier); !ok || p.Initializer != nil {
			fc.SimpleParameterList = false
		}
		if p.Initializer != nil {
			counting = false
			fc.HasParameterExpressions = true
		}
		if counting {
			fc.ExpectedArgumentCount++
		}
		if patternHasExpressions(p.Target) {
			fc.HasParameterExpressions = true
		}
		for _, name := range BoundNames(p.Target) {
			if seen[name] {
				fc.HasDuplicates = true
			}
			seen[name] = true
			fc.ParameterNames = append(fc.ParameterNames, name)
		}
	}
	if fc.Rest != nil {
		if patternHasExpressions(fc.Rest) {
			fc.HasParameterExpressions = true
		}
		for _, name := range BoundNames(fc.Rest) {
			if seen[name] {
				fc.HasDuplicates = true
			}
			seen[name] = true
			fc.ParameterNames = append(fc.ParameterNames, name)
		}
	}

	fc.VarDeclarations = topLevelVarDeclarations(fc.Body)
	fc.VarNames = boundNamesOf(fc.VarDeclarations)
	fc.LexicalDeclarations = topLevelLexicalDeclarations(fc.Body)
	fc.LexicalNames = boundNamesOf(fc.LexicalDeclarations)

	declared := make(map[string]bool)
	for i := len(fc.VarDeclarations) - 1; i >= 0; i-- {
		d := fc.VarDeclarations[i]
		if d.Kind != DeclFunction || len(d.Names) == 0 || declared[d.Names[0]] {
			continue
		}
		declared[d.Names[0]] = true
		fc.FunctionsToInitialize = append(fc.FunctionsToInitialize, d.Function)
	}

	fc.ArgumentsObjectNeeded = !fc.Arrow && !seen["arguments"]
	if fc.ArgumentsObjectNeeded && !fc.HasParameterExpressions {
		if declared["arguments"] || contains(fc.LexicalNames, "arguments") {
			fc.ArgumentsObjectNeeded = false
		}
	}
	debugPrint("function %q: params=%v strict=%v args=%v", fc.Name, fc.ParameterNames, fc.Strict, fc.ArgumentsObjectNeeded)
	return fc
}

// patternHasExpressions reports whether evaluating a binding pattern can
// run code: defaults or computed keys.
func patternHasExpressions(target ast.Expression) bool {
	switch t := target.(type) {
	case *ast.AssignExpression:
		return true
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if patternHasExpressions(el) {
				return true
			}
		}
		return patternHasExpressions(t.Rest)
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			switch p := prop.(type) {
			case *ast.PropertyShort:
				if p.Initializer != nil {
					return true
				}
			case *ast.PropertyKeyed:
				if p.Computed || patternHasExpressions(p.Value) {
					return true
				}
			}
		}
		return patternHasExpressions(t.Rest)
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
