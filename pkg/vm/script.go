package vm

import (
	"escore/pkg/parser"
	"escore/pkg/source"
)

// Script is a Script Record: parsed code bound to the realm it runs in.
type Script struct {
	Realm          *Realm
	ECMAScriptCode *parser.Program
	LoadedModules  map[string]*ModuleRecord
	HostDefined    any
}

// ModuleRecord is the host-facing shape of a module. Module evaluation is
// not supported; hosts may still hand records back from
// LoadImportedModule.
type ModuleRecord struct {
	Realm       *Realm
	Environment Environment
	Namespace   *Object
	HostDefined any
}

// ParseScript parses src as a script for realm. Syntax and early errors
// are returned as an errors.ErrorList.
func ParseScript(src *source.SourceFile, realm *Realm, opts parser.Options, hostDefined any) (*Script, error) {
	prog, err := parser.Parse(src, parser.GoalScript, opts)
	if err != nil {
		return nil, err
	}
	return &Script{
		Realm:          realm,
		ECMAScriptCode: prog,
		LoadedModules:  make(map[string]*ModuleRecord),
		HostDefined:    hostDefined,
	}, nil
}

// ScriptEvaluation instantiates the script's global declarations and
// evaluates it. The script context is popped on every exit path. A throw
// completion is returned, not reported.
func ScriptEvaluation(a *Agent, script *Script) Completion {
	globalEnv := script.Realm.GlobalEnv
	scriptContext := &ExecutionContext{
		Realm:               script.Realm,
		ScriptOrModule:      script,
		VariableEnvironment: globalEnv,
		LexicalEnvironment:  globalEnv,
	}
	if err := a.PushContext(scriptContext); err != nil {
		return ThrowCompletion(a, err)
	}
	defer a.PopContext(scriptContext)

	if err := GlobalDeclarationInstantiation(a, script.ECMAScriptCode, globalEnv); err != nil {
		return ThrowCompletion(a, err)
	}
	if a.Evaluator == nil {
		return ThrowCompletion(a, a.NewError("no evaluator installed"))
	}
	result := a.Evaluator.EvaluateScript(a, script)
	if result.Type == CompletionNormal && result.Value.IsEmpty() {
		result.Value = Undefined
	}
	return result
}

// GlobalDeclarationInstantiation hoists the script's declarations into
// env. All checks run before any binding is created.
func GlobalDeclarationInstantiation(a *Agent, script *parser.Program, env *GlobalEnvironment) error {
	for _, name := range script.LexicallyDeclaredNames {
		if env.HasVarDeclaration(name) || env.HasLexicalDeclaration(name) {
			return a.NewSyntaxError("Identifier '%s' has already been declared", name)
		}
		restricted, err := env.HasRestrictedGlobalProperty(a, name)
		if err != nil {
			return err
		}
		if restricted {
			return a.NewSyntaxError("Cannot redefine restricted global property '%s'", name)
		}
	}
	for _, name := range script.VarDeclaredNames {
		if env.HasLexicalDeclaration(name) {
			return a.NewSyntaxError("Identifier '%s' has already been declared", name)
		}
	}

	var functionsToInitialize []*parser.Declaration
	declaredFunctionNames := make(map[string]bool)
	decls := script.VarScopedDeclarations
	for i := len(decls) - 1; i >= 0; i-- {
		d := decls[i]
		if d.Kind != parser.DeclFunction {
			continue
		}
		fn := d.Names[0]
		if declaredFunctionNames[fn] {
			continue
		}
		ok, err := env.CanDeclareGlobalFunction(a, fn)
		if err != nil {
			return err
		}
		if !ok {
			return a.NewTypeError("Cannot declare global function '%s'", fn)
		}
		declaredFunctionNames[fn] = true
		functionsToInitialize = append([]*parser.Declaration{d}, functionsToInitialize...)
	}

	var declaredVarNames []string
	seenVar := make(map[string]bool)
	for _, d := range decls {
		if d.Kind != parser.DeclVar {
			continue
		}
		for _, vn := range d.Names {
			if declaredFunctionNames[vn] {
				continue
			}
			ok, err := env.CanDeclareGlobalVar(a, vn)
			if err != nil {
				return err
			}
			if !ok {
				return a.NewTypeError("Cannot declare global variable '%s'", vn)
			}
			if !seenVar[vn] {
				seenVar[vn] = true
				declaredVarNames = append(declaredVarNames, vn)
			}
		}
	}

	for _, d := range script.LexicallyScopedDeclarations {
		for _, dn := range d.Names {
			var err error
			if d.IsConstantDeclaration() {
				err = env.CreateImmutableBinding(a, dn, true)
			} else {
				err = env.CreateMutableBinding(a, dn, false)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, d := range functionsToInitialize {
		fo, err := InstantiateFunctionObject(a, script, d.Function, env, nil, script.Strict)
		if err != nil {
			return err
		}
		if err := env.CreateGlobalFunctionBinding(a, d.Names[0], ObjectValue(fo), false); err != nil {
			return err
		}
	}

	for _, vn := range declaredVarNames {
		if err := env.CreateGlobalVarBinding(a, vn, false); err != nil {
			return err
		}
	}
	return nil
}
