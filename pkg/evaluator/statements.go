package evaluator

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"escore/pkg/parser"
	"escore/pkg/vm"
)

func (s *state) statementList(list []ast.Statement) vm.Completion {
	result := vm.EmptyCompletion()
	for _, stmt := range list {
		c := vm.UpdateEmpty(s.statement(stmt), result.Value)
		if c.IsAbrupt() {
			return c
		}
		result = c
	}
	return result
}

func (s *state) statement(stmt ast.Statement) vm.Completion {
	switch st := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := s.value(st.Expression)
		if err != nil {
			return s.throw(err)
		}
		return vm.NormalCompletion(v)

	case *ast.VariableStatement:
		if err := s.varDeclarations(st.List); err != nil {
			return s.throw(err)
		}
		return vm.EmptyCompletion()

	case *ast.LexicalDeclaration:
		if err := s.lexicalDeclaration(st); err != nil {
			return s.throw(err)
		}
		return vm.EmptyCompletion()

	case *ast.FunctionDeclaration:
		// Hoisted by declaration instantiation.
		return vm.EmptyCompletion()

	case *ast.ClassDeclaration:
		name := st.Class.Name.Name.String()
		v, err := s.classDefinition(st.Class, name, vm.StringKey(name))
		if err != nil {
			return s.throw(err)
		}
		if err := s.lexicalEnvironment().InitializeBinding(s.a, name, v); err != nil {
			return s.throw(err)
		}
		return vm.EmptyCompletion()

	case *ast.BlockStatement:
		return s.block(st.List)

	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return vm.EmptyCompletion()

	case *ast.IfStatement:
		test, err := s.value(st.Test)
		if err != nil {
			return s.throw(err)
		}
		var c vm.Completion
		switch {
		case vm.ToBoolean(test):
			c = s.statement(st.Consequent)
		case st.Alternate != nil:
			c = s.statement(st.Alternate)
		default:
			return vm.NormalCompletion(vm.Undefined)
		}
		return vm.UpdateEmpty(c, vm.Undefined)

	case *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement,
		*ast.WhileStatement, *ast.DoWhileStatement, *ast.SwitchStatement, *ast.LabelledStatement:
		return s.labelled(stmt, nil)

	case *ast.BranchStatement:
		c := vm.Completion{Type: vm.CompletionBreak, Value: vm.Empty}
		if st.Token == token.CONTINUE {
			c.Type = vm.CompletionContinue
		}
		if st.Label != nil {
			c.Target = st.Label.Name.String()
		}
		return c

	case *ast.ReturnStatement:
		if st.Argument == nil {
			return vm.Completion{Type: vm.CompletionReturn, Value: vm.Undefined}
		}
		v, err := s.value(st.Argument)
		if err != nil {
			return s.throw(err)
		}
		return vm.Completion{Type: vm.CompletionReturn, Value: v}

	case *ast.ThrowStatement:
		v, err := s.value(st.Argument)
		if err != nil {
			return s.throw(err)
		}
		return vm.Completion{Type: vm.CompletionThrow, Value: v}

	case *ast.TryStatement:
		return s.tryStatement(st)

	case *ast.WithStatement:
		return s.withStatement(st)

	case *ast.BadStatement:
		return s.throw(s.a.NewSyntaxError("Unexpected token"))
	}
	return s.throw(s.a.NewSyntaxError("unsupported statement %T", stmt))
}

// labelled implements LabelledEvaluation. labels is the label set of the
// statement being evaluated.
func (s *state) labelled(stmt ast.Statement, labels []string) vm.Completion {
	switch st := stmt.(type) {
	case *ast.LabelledStatement:
		label := st.Label.Name.String()
		set := make([]string, len(labels), len(labels)+1)
		copy(set, labels)
		c := s.labelled(st.Statement, append(set, label))
		if c.Type == vm.CompletionBreak && c.Target == label {
			c = vm.NormalCompletion(c.Value)
		}
		return c

	case *ast.FunctionDeclaration:
		return vm.EmptyCompletion()

	case *ast.SwitchStatement:
		return breakableResult(s.switchStatement(st))

	case *ast.ForStatement:
		return breakableResult(s.forStatement(st, labels))
	case *ast.ForInStatement:
		return breakableResult(s.forInOfStatement(st.Into, st.Source, st.Body, true, labels))
	case *ast.ForOfStatement:
		return breakableResult(s.forInOfStatement(st.Into, st.Source, st.Body, false, labels))
	case *ast.WhileStatement:
		return breakableResult(s.whileStatement(st, labels))
	case *ast.DoWhileStatement:
		return breakableResult(s.doWhileStatement(st, labels))
	}
	return s.statement(stmt)
}

// breakableResult consumes an unlabelled break out of a loop or switch.
func breakableResult(c vm.Completion) vm.Completion {
	if c.Type == vm.CompletionBreak && c.Target == "" {
		if c.Value.IsEmpty() {
			return vm.NormalCompletion(vm.Undefined)
		}
		return vm.NormalCompletion(c.Value)
	}
	return c
}

func loopContinues(c vm.Completion, labels []string) bool {
	switch {
	case c.Type == vm.CompletionNormal:
		return true
	case c.Type != vm.CompletionContinue:
		return false
	case c.Target == "":
		return true
	}
	for _, l := range labels {
		if l == c.Target {
			return true
		}
	}
	return false
}

func (s *state) varDeclarations(list []*ast.Binding) error {
	for _, b := range list {
		if b.Initializer == nil {
			continue
		}
		if id, ok := b.Target.(*ast.Identifier); ok {
			name := id.Name.String()
			lhs, err := s.a.ResolveBinding(name, nil, s.strict)
			if err != nil {
				return err
			}
			v, err := s.namedValue(b.Initializer, vm.StringKey(name))
			if err != nil {
				return err
			}
			if err := lhs.PutValue(s.a, v); err != nil {
				return err
			}
			continue
		}
		v, err := s.value(b.Initializer)
		if err != nil {
			return err
		}
		if err := s.bindPattern(b.Target, v, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) lexicalDeclaration(decl *ast.LexicalDeclaration) error {
	for _, b := range decl.List {
		if id, ok := b.Target.(*ast.Identifier); ok {
			name := id.Name.String()
			lhs, err := s.a.ResolveBinding(name, nil, s.strict)
			if err != nil {
				return err
			}
			v := vm.Undefined
			if b.Initializer != nil {
				if v, err = s.namedValue(b.Initializer, vm.StringKey(name)); err != nil {
					return err
				}
			}
			if err := lhs.InitializeReferencedBinding(s.a, v); err != nil {
				return err
			}
			continue
		}
		v, err := s.value(b.Initializer)
		if err != nil {
			return err
		}
		if err := s.bindPattern(b.Target, v, s.lexicalEnvironment()); err != nil {
			return err
		}
	}
	return nil
}

// block evaluates a statement list in a fresh declarative environment
// when it declares anything block scoped.
func (s *state) block(list []ast.Statement) vm.Completion {
	decls := parser.BlockDeclarations(list)
	if len(decls) == 0 {
		return s.statementList(list)
	}
	if err := s.checkBlock(decls, parser.VarScopedDeclarations(list)); err != nil {
		return s.throw(err)
	}
	blockEnv := vm.NewDeclarativeEnvironment(s.lexicalEnvironment())
	if err := s.blockDeclarationInstantiation(decls, blockEnv); err != nil {
		return s.throw(err)
	}
	return s.withLexicalEnvironment(blockEnv, func() vm.Completion {
		return s.statementList(list)
	})
}

// checkBlock reports the redeclaration early errors of a block. Sloppy
// code may declare the same function twice.
func (s *state) checkBlock(lexical, vars []*parser.Declaration) error {
	if !s.strict {
		functions := make(map[string]bool)
		kept := make([]*parser.Declaration, 0, len(lexical))
		for _, d := range lexical {
			if d.Kind == parser.DeclFunction && len(d.Names) == 1 {
				if functions[d.Names[0]] {
					continue
				}
				functions[d.Names[0]] = true
			}
			kept = append(kept, d)
		}
		lexical = kept
	}
	if name, ok := parser.CheckBlockDeclarations(lexical, vars); !ok {
		return s.a.NewSyntaxError("Identifier '%s' has already been declared", name)
	}
	return nil
}

func (s *state) blockDeclarationInstantiation(decls []*parser.Declaration, env *vm.DeclarativeEnvironment) error {
	a := s.a
	privateEnv := s.context().PrivateEnvironment
	for _, d := range decls {
		for _, name := range d.Names {
			exists, _ := env.HasBinding(a, name)
			if exists {
				continue
			}
			var err error
			if d.IsConstantDeclaration() {
				err = env.CreateImmutableBinding(a, name, true)
			} else {
				err = env.CreateMutableBinding(a, name, false)
			}
			if err != nil {
				return err
			}
		}
		if d.Kind != parser.DeclFunction {
			continue
		}
		fo, err := vm.InstantiateFunctionObject(a, s.program, d.Function, env, privateEnv, s.strict)
		if err != nil {
			return err
		}
		name := d.Names[0]
		if env.IsInitialized(name) {
			err = env.SetMutableBinding(a, name, vm.ObjectValue(fo), false)
		} else {
			err = env.InitializeBinding(a, name, vm.ObjectValue(fo))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) whileStatement(st *ast.WhileStatement, labels []string) vm.Completion {
	v := vm.Undefined
	for {
		test, err := s.value(st.Test)
		if err != nil {
			return s.throw(err)
		}
		if !vm.ToBoolean(test) {
			return vm.NormalCompletion(v)
		}
		c := s.statement(st.Body)
		if !loopContinues(c, labels) {
			return vm.UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
	}
}

func (s *state) doWhileStatement(st *ast.DoWhileStatement, labels []string) vm.Completion {
	v := vm.Undefined
	for {
		c := s.statement(st.Body)
		if !loopContinues(c, labels) {
			return vm.UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
		test, err := s.value(st.Test)
		if err != nil {
			return s.throw(err)
		}
		if !vm.ToBoolean(test) {
			return vm.NormalCompletion(v)
		}
	}
}

func (s *state) forStatement(st *ast.ForStatement, labels []string) vm.Completion {
	switch init := st.Initializer.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		if _, err := s.value(init.Expression); err != nil {
			return s.throw(err)
		}
	case *ast.ForLoopInitializerVarDeclList:
		if err := s.varDeclarations(init.List); err != nil {
			return s.throw(err)
		}
	case *ast.ForLoopInitializerLexicalDecl:
		decl := &init.LexicalDeclaration
		isConst := decl.Token == token.CONST
		loopEnv := vm.NewDeclarativeEnvironment(s.lexicalEnvironment())
		var names []string
		for _, b := range decl.List {
			names = append(names, parser.BoundNames(b.Target)...)
		}
		for _, name := range names {
			var err error
			if isConst {
				err = loopEnv.CreateImmutableBinding(s.a, name, true)
			} else {
				err = loopEnv.CreateMutableBinding(s.a, name, false)
			}
			if err != nil {
				return s.throw(err)
			}
		}
		return s.withLexicalEnvironment(loopEnv, func() vm.Completion {
			if err := s.lexicalDeclaration(decl); err != nil {
				return s.throw(err)
			}
			var perIterationLets []string
			if !isConst {
				perIterationLets = names
			}
			return s.forBody(st, perIterationLets, labels)
		})
	}
	return s.forBody(st, nil, labels)
}

// forBody implements ForBodyEvaluation. perIterationLets are copied into
// a fresh environment before each iteration so closures capture the
// iteration's own bindings.
func (s *state) forBody(st *ast.ForStatement, perIterationLets []string, labels []string) vm.Completion {
	v := vm.Undefined
	if err := s.createPerIterationEnvironment(perIterationLets); err != nil {
		return s.throw(err)
	}
	for {
		if st.Test != nil {
			test, err := s.value(st.Test)
			if err != nil {
				return s.throw(err)
			}
			if !vm.ToBoolean(test) {
				return vm.NormalCompletion(v)
			}
		}
		c := s.statement(st.Body)
		if !loopContinues(c, labels) {
			return vm.UpdateEmpty(c, v)
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
		if err := s.createPerIterationEnvironment(perIterationLets); err != nil {
			return s.throw(err)
		}
		if st.Update != nil {
			if _, err := s.value(st.Update); err != nil {
				return s.throw(err)
			}
		}
	}
}

func (s *state) createPerIterationEnvironment(names []string) error {
	if len(names) == 0 {
		return nil
	}
	ctx := s.context()
	last := ctx.LexicalEnvironment
	next := vm.NewDeclarativeEnvironment(last.Outer())
	for _, name := range names {
		if err := next.CreateMutableBinding(s.a, name, false); err != nil {
			return err
		}
		v, err := last.GetBindingValue(s.a, name, true)
		if err != nil {
			return err
		}
		if err := next.InitializeBinding(s.a, name, v); err != nil {
			return err
		}
	}
	ctx.LexicalEnvironment = next
	return nil
}

// loopIterator abstracts the for-in property enumerator and the for-of
// iterator record.
type loopIterator interface {
	next() (vm.Value, bool, error)
	// close finishes an abrupt loop exit. cause, when non-nil, wins.
	close(cause error) error
}

type iteratorRecordLoop struct {
	a  *vm.Agent
	it *vm.IteratorRecord
}

func (l *iteratorRecordLoop) next() (vm.Value, bool, error) { return l.it.Step(l.a) }

func (l *iteratorRecordLoop) close(cause error) error {
	if l.it.Done {
		return cause
	}
	return l.it.Close(l.a, cause)
}

func (s *state) forInOfStatement(into ast.ForInto, source ast.Expression, body ast.Statement, enumerate bool, labels []string) vm.Completion {
	// TDZ environment for the head expression.
	ctx := s.context()
	oldEnv := ctx.LexicalEnvironment
	if decl, ok := into.(*ast.ForDeclaration); ok {
		tdz := vm.NewDeclarativeEnvironment(oldEnv)
		for _, name := range parser.BoundNames(decl.Target) {
			if err := tdz.CreateMutableBinding(s.a, name, false); err != nil {
				return s.throw(err)
			}
		}
		ctx.LexicalEnvironment = tdz
	}
	exprValue, err := s.value(source)
	ctx.LexicalEnvironment = oldEnv
	if err != nil {
		return s.throw(err)
	}

	var it loopIterator
	if enumerate {
		if exprValue.IsNullish() {
			return vm.NormalCompletion(vm.Undefined)
		}
		obj, err := vm.ToObject(s.a, exprValue)
		if err != nil {
			return s.throw(err)
		}
		it = newPropertyEnumerator(s.a, obj)
	} else {
		rec, err := vm.GetIterator(s.a, exprValue)
		if err != nil {
			return s.throw(err)
		}
		it = &iteratorRecordLoop{a: s.a, it: rec}
	}
	return s.forInOfBody(into, body, it, labels)
}

func (s *state) forInOfBody(into ast.ForInto, body ast.Statement, it loopIterator, labels []string) vm.Completion {
	ctx := s.context()
	oldEnv := ctx.LexicalEnvironment
	defer func() { ctx.LexicalEnvironment = oldEnv }()

	v := vm.Undefined
	for {
		next, ok, err := it.next()
		if err != nil {
			return s.throw(err)
		}
		if !ok {
			return vm.NormalCompletion(v)
		}
		if err := s.bindForTarget(into, next, oldEnv); err != nil {
			ctx.LexicalEnvironment = oldEnv
			return s.throw(it.close(err))
		}
		c := s.statement(body)
		ctx.LexicalEnvironment = oldEnv
		if !loopContinues(c, labels) {
			c = vm.UpdateEmpty(c, v)
			if c.IsThrow() {
				return s.throw(it.close(c.Err()))
			}
			if err := it.close(nil); err != nil {
				return s.throw(err)
			}
			return c
		}
		if !c.Value.IsEmpty() {
			v = c.Value
		}
	}
}

func (s *state) bindForTarget(into ast.ForInto, v vm.Value, oldEnv vm.Environment) error {
	switch t := into.(type) {
	case *ast.ForIntoExpression:
		if isPattern(t.Expression) {
			return s.bindPattern(t.Expression, v, nil)
		}
		ref, err := s.evaluate(t.Expression)
		if err != nil {
			return err
		}
		return vm.PutValue(s.a, ref, v)

	case *ast.ForIntoVar:
		return s.bindPattern(t.Binding.Target, v, nil)

	case *ast.ForDeclaration:
		iterationEnv := vm.NewDeclarativeEnvironment(oldEnv)
		for _, name := range parser.BoundNames(t.Target) {
			var err error
			if t.IsConst {
				err = iterationEnv.CreateImmutableBinding(s.a, name, true)
			} else {
				err = iterationEnv.CreateMutableBinding(s.a, name, false)
			}
			if err != nil {
				return err
			}
		}
		s.context().LexicalEnvironment = iterationEnv
		return s.bindPattern(t.Target, v, iterationEnv)
	}
	return s.a.NewSyntaxError("Invalid left-hand side in for-in or for-of")
}

// propertyEnumerator walks the enumerable string keys of an object and
// its prototypes. Keys are fetched per object when it is reached; a key
// seen on a nearer object shadows the same key further up.
type propertyEnumerator struct {
	a       *vm.Agent
	obj     *vm.Object
	visited map[vm.PropertyKey]bool
	keys    []vm.PropertyKey
	loaded  bool
}

func newPropertyEnumerator(a *vm.Agent, obj *vm.Object) *propertyEnumerator {
	return &propertyEnumerator{a: a, obj: obj, visited: make(map[vm.PropertyKey]bool)}
}

func (e *propertyEnumerator) next() (vm.Value, bool, error) {
	for e.obj != nil {
		if !e.loaded {
			keys, err := e.obj.Impl().OwnPropertyKeys(e.a)
			if err != nil {
				return vm.Undefined, false, err
			}
			e.keys = keys
			e.loaded = true
		}
		for len(e.keys) > 0 {
			k := e.keys[0]
			e.keys = e.keys[1:]
			if k.IsSymbol() || e.visited[k] {
				continue
			}
			desc, err := e.obj.Impl().GetOwnProperty(e.a, k)
			if err != nil {
				return vm.Undefined, false, err
			}
			if desc == nil {
				continue
			}
			e.visited[k] = true
			if desc.Enumerable {
				return vm.StringValue(k.Name()), true, nil
			}
		}
		proto, err := e.obj.Impl().GetPrototypeOf(e.a)
		if err != nil {
			return vm.Undefined, false, err
		}
		e.obj, e.loaded = proto, false
	}
	return vm.Undefined, false, nil
}

func (e *propertyEnumerator) close(cause error) error { return cause }

func (s *state) switchStatement(st *ast.SwitchStatement) vm.Completion {
	discriminant, err := s.value(st.Discriminant)
	if err != nil {
		return s.throw(err)
	}
	var all []ast.Statement
	for _, c := range st.Body {
		all = append(all, c.Consequent...)
	}
	blockEnv := vm.NewDeclarativeEnvironment(s.lexicalEnvironment())
	if decls := parser.BlockDeclarations(all); len(decls) > 0 {
		if err := s.checkBlock(decls, parser.VarScopedDeclarations(all)); err != nil {
			return s.throw(err)
		}
		if err := s.blockDeclarationInstantiation(decls, blockEnv); err != nil {
			return s.throw(err)
		}
	}
	return s.withLexicalEnvironment(blockEnv, func() vm.Completion {
		return s.caseBlock(st, discriminant)
	})
}

func (s *state) caseBlock(st *ast.SwitchStatement, discriminant vm.Value) vm.Completion {
	start := -1
	for i, c := range st.Body {
		if c.Test == nil {
			continue
		}
		v, err := s.value(c.Test)
		if err != nil {
			return s.throw(err)
		}
		if vm.IsStrictlyEqual(discriminant, v) {
			start = i
			break
		}
	}
	if start < 0 {
		if st.Default < 0 {
			return vm.NormalCompletion(vm.Undefined)
		}
		start = st.Default
	}
	v := vm.Undefined
	for _, c := range st.Body[start:] {
		r := s.statementList(c.Consequent)
		if !r.Value.IsEmpty() {
			v = r.Value
		}
		if r.IsAbrupt() {
			return vm.UpdateEmpty(r, v)
		}
	}
	return vm.NormalCompletion(v)
}

func (s *state) tryStatement(st *ast.TryStatement) vm.Completion {
	c := s.block(st.Body.List)
	if st.Catch != nil && c.Type == vm.CompletionThrow {
		c = s.catchClause(st.Catch, c.Value)
	}
	if st.Finally != nil {
		if f := s.block(st.Finally.List); f.IsAbrupt() {
			c = f
		}
	}
	return vm.UpdateEmpty(c, vm.Undefined)
}

func (s *state) catchClause(clause *ast.CatchStatement, thrown vm.Value) vm.Completion {
	if clause.Parameter == nil {
		return s.block(clause.Body.List)
	}
	names := parser.BoundNames(clause.Parameter)
	for _, d := range parser.BlockDeclarations(clause.Body.List) {
		for _, n := range d.Names {
			for _, p := range names {
				if n == p {
					return s.throw(s.a.NewSyntaxError("Identifier '%s' has already been declared", n))
				}
			}
		}
	}
	catchEnv := vm.NewDeclarativeEnvironment(s.lexicalEnvironment())
	for _, name := range names {
		if err := catchEnv.CreateMutableBinding(s.a, name, false); err != nil {
			return s.throw(err)
		}
	}
	return s.withLexicalEnvironment(catchEnv, func() vm.Completion {
		if err := s.bindPattern(clause.Parameter, thrown, catchEnv); err != nil {
			return s.throw(err)
		}
		return s.block(clause.Body.List)
	})
}

func (s *state) withStatement(st *ast.WithStatement) vm.Completion {
	if s.strict {
		return s.throw(s.a.NewSyntaxError("Strict mode code may not include a with statement"))
	}
	v, err := s.value(st.Object)
	if err != nil {
		return s.throw(err)
	}
	obj, err := vm.ToObject(s.a, v)
	if err != nil {
		return s.throw(err)
	}
	env := vm.NewObjectEnvironment(obj, true, s.lexicalEnvironment())
	c := s.withLexicalEnvironment(env, func() vm.Completion {
		return s.statement(st.Body)
	})
	return vm.UpdateEmpty(c, vm.Undefined)
}
