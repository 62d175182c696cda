package evaluator

import (
	"strings"

	"github.com/dop251/goja/ast"

	"escore/pkg/vm"
)

func (s *state) templateLiteral(e *ast.TemplateLiteral) (vm.Value, error) {
	if e.Tag != nil {
		return s.taggedTemplate(e)
	}
	var sb strings.Builder
	for i, el := range e.Elements {
		sb.WriteString(el.Parsed.String())
		if i >= len(e.Expressions) {
			continue
		}
		v, err := s.value(e.Expressions[i])
		if err != nil {
			return vm.Undefined, err
		}
		str, err := vm.ToString(s.a, v)
		if err != nil {
			return vm.Undefined, err
		}
		sb.WriteString(str)
	}
	return vm.StringValue(sb.String()), nil
}

func (s *state) taggedTemplate(e *ast.TemplateLiteral) (vm.Value, error) {
	a := s.a
	op, err := s.evaluate(e.Tag)
	if err != nil {
		return vm.Undefined, err
	}
	fn, err := op.GetValue(a)
	if err != nil {
		return vm.Undefined, err
	}
	this := vm.Undefined
	switch ref := op.(type) {
	case *vm.Reference:
		this = thisForReference(ref)
	case *evaluatedRef:
		this = thisForReference(ref.ref)
	}
	template, err := s.templateObject(e)
	if err != nil {
		return vm.Undefined, err
	}
	args := []vm.Value{vm.ObjectValue(template)}
	for _, expr := range e.Expressions {
		v, err := s.value(expr)
		if err != nil {
			return vm.Undefined, err
		}
		args = append(args, v)
	}
	if !vm.IsCallable(fn) {
		return vm.Undefined, a.NewTypeError("%s is not a function", exprText(e.Tag))
	}
	return vm.Call(a, fn, this, args)
}

// templateObject implements GetTemplateObject. Template objects are cached
// per site in the realm, so repeated evaluation yields the same frozen
// array.
func (s *state) templateObject(e *ast.TemplateLiteral) (*vm.Object, error) {
	a := s.a
	realm := s.realm()
	if t, ok := realm.TemplateMap[e]; ok {
		return t, nil
	}
	cooked := make([]vm.Value, len(e.Elements))
	raw := make([]vm.Value, len(e.Elements))
	for i, el := range e.Elements {
		cooked[i] = vm.Undefined
		if el.Valid {
			cooked[i] = vm.StringValue(el.Parsed.String())
		}
		raw[i] = vm.StringValue(normalizeLineTerminators(el.Literal))
	}
	rawObj := vm.CreateArrayFromList(a, raw)
	if _, err := vm.SetIntegrityLevel(a, rawObj, vm.IntegrityFrozen); err != nil {
		return nil, err
	}
	template := vm.CreateArrayFromList(a, cooked)
	template.DefineDataProperty(vm.StringKey("raw"), vm.ObjectValue(rawObj), false, false, false)
	if _, err := vm.SetIntegrityLevel(a, template, vm.IntegrityFrozen); err != nil {
		return nil, err
	}
	realm.TemplateMap[e] = template
	return template, nil
}

// normalizeLineTerminators maps CRLF and CR to LF in raw template text.
func normalizeLineTerminators(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// regExpLiteral constructs a RegExp through the realm's constructor.
func (s *state) regExpLiteral(e *ast.RegExpLiteral) (vm.Value, error) {
	ctor := s.intrinsic("%RegExp%")
	if ctor == nil {
		return vm.Undefined, s.unsupported(e, "regular expression literals")
	}
	return vm.Construct(s.a, ctor, []vm.Value{vm.StringValue(e.Pattern), vm.StringValue(e.Flags)}, nil)
}
