package builtins

import (
	"bytes"
	"testing"

	"escore/pkg/evaluator"
	"escore/pkg/parser"
	"escore/pkg/source"
	"escore/pkg/vm"
)

// newTestAgent returns an agent with a fully installed realm. Console
// output of the realm goes to out.
func newTestAgent(t *testing.T, out *bytes.Buffer) (*vm.Agent, *vm.Realm) {
	t.Helper()
	if out == nil {
		out = &bytes.Buffer{}
	}
	a := vm.NewAgent(
		vm.WithEvaluator(evaluator.New()),
		vm.WithInstaller(NewInstaller(WithOutput(out, out))),
	)
	realm, err := vm.InitializeHostDefinedRealm(a)
	if err != nil {
		t.Fatalf("InitializeHostDefinedRealm: %v", err)
	}
	return a, realm
}

func evalScript(t *testing.T, a *vm.Agent, realm *vm.Realm, code string) vm.Completion {
	t.Helper()
	script, err := vm.ParseScript(source.NewEvalSource(code), realm, parser.Options{}, nil)
	if err != nil {
		t.Fatalf("ParseScript(%q): %v", code, err)
	}
	return vm.ScriptEvaluation(a, script)
}

type scriptTest struct {
	name    string
	code    string
	want    string // ToString of the completion value
	wantErr string // name of the thrown error
}

func runScriptTests(t *testing.T, tests []scriptTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, realm := newTestAgent(t, nil)
			c := evalScript(t, a, realm, tt.code)
			if tt.wantErr != "" {
				if !c.IsThrow() {
					t.Fatalf("expected %s to be thrown, got %s", tt.wantErr, c.Value.Inspect())
				}
				name, msg := vm.ErrorNameAndMessage(c.Value)
				if name != tt.wantErr {
					t.Errorf("expected %s, got %s: %s", tt.wantErr, name, msg)
				}
				return
			}
			if c.IsThrow() {
				name, msg := vm.ErrorNameAndMessage(c.Value)
				t.Fatalf("unexpected %s: %s", name, msg)
			}
			got, err := vm.ToString(a, c.Value)
			if err != nil {
				t.Fatalf("ToString(%s): %v", c.Value.Inspect(), err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStandardInitializersAreOrdered(t *testing.T) {
	inits := GetStandardInitializers()
	if inits[0].Name() != "Object" {
		t.Errorf("expected Object to initialize first, got %s", inits[0].Name())
	}
	if inits[1].Name() != "Function" {
		t.Errorf("expected Function to initialize second, got %s", inits[1].Name())
	}
	for i := 1; i < len(inits); i++ {
		if inits[i-1].Priority() > inits[i].Priority() {
			t.Errorf("%s (priority %d) runs before %s (priority %d)",
				inits[i-1].Name(), inits[i-1].Priority(), inits[i].Name(), inits[i].Priority())
		}
	}
}

func TestInstallerDefinesGlobals(t *testing.T) {
	a, realm := newTestAgent(t, nil)
	globals := []string{
		"Object", "Function", "Array", "String", "Number", "Boolean", "Symbol",
		"Error", "TypeError", "RangeError", "AggregateError", "RegExp",
		"Reflect", "Proxy", "Math", "JSON", "console",
		"parseInt", "parseFloat", "isNaN", "isFinite", "queueMicrotask",
		"globalThis", "NaN", "Infinity", "undefined",
	}
	for _, name := range globals {
		desc, err := realm.GlobalObject.Impl().GetOwnProperty(a, vm.StringKey(name))
		if err != nil {
			t.Fatalf("GetOwnProperty(%s): %v", name, err)
		}
		if desc == nil {
			t.Errorf("expected global %s to be defined", name)
		}
	}

	desc, _ := realm.GlobalObject.Impl().GetOwnProperty(a, vm.StringKey("Array"))
	if desc != nil && (desc.Enumerable || !desc.Writable || !desc.Configurable) {
		t.Errorf("expected Array global to be writable, non-enumerable, configurable, got %+v", desc)
	}
}

func TestIntrinsicsRegistered(t *testing.T) {
	_, realm := newTestAgent(t, nil)
	for _, name := range []string{
		"%Object.prototype%", "%Function.prototype%", "%Array%", "%Array.prototype%",
		"%ArrayIteratorPrototype%", "%IteratorPrototype%", "%String.prototype%",
		"%RegExp.prototype%", "%TypeError.prototype%", "%Proxy%", "%parseInt%",
		"%Array.prototype.values%",
	} {
		if realm.Intrinsic(name) == nil {
			t.Errorf("expected intrinsic %s to be registered", name)
		}
	}
}

func TestSeparateRealmsHaveSeparateIntrinsics(t *testing.T) {
	a, realm1 := newTestAgent(t, nil)
	realm2, err := vm.InitializeHostDefinedRealm(a)
	if err != nil {
		t.Fatalf("second realm: %v", err)
	}
	if realm1.Intrinsic("%Array%") == realm2.Intrinsic("%Array%") {
		t.Error("expected each realm to own its Array constructor")
	}
}

func TestConsoleWritesToOutput(t *testing.T) {
	var out bytes.Buffer
	a, realm := newTestAgent(t, &out)
	c := evalScript(t, a, realm, `
		console.log("hello", 1, true);
		console.group();
		console.log("nested");
		console.groupEnd();
		console.count();
		console.count();
	`)
	if c.IsThrow() {
		t.Fatalf("unexpected throw: %s", c.Value.Inspect())
	}
	want := "hello 1 true\n  nested\ndefault: 1\ndefault: 2\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestQueueMicrotaskEnqueuesHostJob(t *testing.T) {
	a, realm := newTestAgent(t, nil)
	c := evalScript(t, a, realm, `var ran = false; queueMicrotask(() => { ran = true; }); ran`)
	if c.IsThrow() || c.Value != vm.False {
		t.Fatalf("expected job not to run synchronously, got %s", c.Value.Inspect())
	}
	host := a.Host.(*vm.DefaultHost)
	if len(host.Jobs) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(host.Jobs))
	}
	job := host.Jobs[0]
	if job.Realm != realm {
		t.Error("expected the job to carry the calling realm")
	}
	if err := job.Job(a); err != nil {
		t.Fatalf("job failed: %v", err)
	}
	v, _ := realm.GlobalObject.OwnDataValue(vm.StringKey("ran"))
	if v != vm.True {
		t.Errorf("expected ran to be true after the job, got %s", v.Inspect())
	}

	c = evalScript(t, a, realm, `queueMicrotask(1)`)
	if name, _ := vm.ErrorNameAndMessage(c.Value); !c.IsThrow() || name != "TypeError" {
		t.Errorf("expected TypeError for a non-callable callback, got %s", c.Value.Inspect())
	}
}

func TestGlobalFunctions(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "parseInt is shared", code: `parseInt === Number.parseInt`, want: "true"},
		{name: "parseInt hex", code: `parseInt("0x1F")`, want: "31"},
		{name: "parseInt radix", code: `parseInt("z", 36)`, want: "35"},
		{name: "parseInt garbage", code: `parseInt("abc")`, want: "NaN"},
		{name: "parseInt sign and space", code: `parseInt("  -42px")`, want: "-42"},
		{name: "parseFloat", code: `parseFloat("3.5e2x")`, want: "350"},
		{name: "parseFloat infinity", code: `parseFloat("-Infinityx")`, want: "-Infinity"},
		{name: "isNaN coerces", code: `isNaN("abc")`, want: "true"},
		{name: "Number.isNaN does not", code: `Number.isNaN("abc")`, want: "false"},
		{name: "isFinite", code: `isFinite("12")`, want: "true"},
		{name: "globalThis", code: `globalThis.Array === Array`, want: "true"},
	})
}
