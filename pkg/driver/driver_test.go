package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"escore/pkg/config"
	"escore/pkg/host"
)

func newTestSession(t *testing.T, opts ...Option) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts = append([]Option{WithOutput(&stdout, &stderr)}, opts...)
	s, err := NewSession(context.Background(), opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, &stdout, &stderr
}

func TestSessionKeepsBindings(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	if _, errs := s.RunString(ctx, "let total = 1; function bump(n) { total += n; }"); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, errs := s.RunString(ctx, "bump(41)"); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	v, errs := s.RunString(ctx, "total")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if v.Inspect() != "42" {
		t.Errorf("expected 42, got %s", v.Inspect())
	}

	_, errs = s.RunString(ctx, "let total = 2;")
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "already been declared") {
		t.Errorf("expected redeclaration error, got %v", errs)
	}
}

func TestSessionEmptyCompletionIsUndefined(t *testing.T) {
	s, _, _ := newTestSession(t)
	v, errs := s.RunString(context.Background(), "var x = 1;")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !v.IsUndefined() {
		t.Errorf("expected undefined, got %s", v.Inspect())
	}
}

func TestSessionDrainsMicrotasks(t *testing.T) {
	s, stdout, _ := newTestSession(t)
	ctx := context.Background()
	code := `
		queueMicrotask(() => {
			console.log("job");
			queueMicrotask(() => console.log("nested"));
		});
		console.log("sync");
	`
	if _, errs := s.RunString(ctx, code); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := stdout.String(); got != "sync\njob\nnested\n" {
		t.Errorf("expected sync, job, nested in order, got %q", got)
	}
}

func TestSessionReportsFailedJob(t *testing.T) {
	s, stdout, _ := newTestSession(t)
	code := `
		queueMicrotask(() => { throw new TypeError("job failed"); });
		queueMicrotask(() => console.log("still runs"));
		"done";
	`
	v, errs := s.RunString(context.Background(), code)
	if v.Inspect() != "done" {
		t.Errorf("expected completion value done, got %s", v.Inspect())
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if got := errs[0].Error(); got != "Uncaught TypeError: job failed" {
		t.Errorf("expected job error, got %q", got)
	}
	if stdout.String() != "still runs\n" {
		t.Errorf("expected remaining job to run, got %q", stdout.String())
	}
}

func TestSessionThrowCompletion(t *testing.T) {
	s, _, _ := newTestSession(t)
	tests := []struct {
		code string
		want string
	}{
		{"null.x", "Uncaught TypeError"},
		{"throw new RangeError('nope')", "Uncaught RangeError: nope"},
		{"throw 42", "Uncaught 42"},
	}
	for _, tt := range tests {
		v, errs := s.RunString(context.Background(), tt.code)
		if len(errs) != 1 {
			t.Errorf("%s: expected one error, got %v", tt.code, errs)
			continue
		}
		if errs[0].Kind() != "Runtime" || !strings.HasPrefix(errs[0].Error(), tt.want) {
			t.Errorf("%s: expected %q, got %s %q", tt.code, tt.want, errs[0].Kind(), errs[0].Error())
		}
		if !v.IsUndefined() {
			t.Errorf("%s: expected undefined value, got %s", tt.code, v.Inspect())
		}
	}
}

func TestSessionSyntaxError(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, errs := s.RunString(context.Background(), "1 +")
	if len(errs) == 0 || errs[0].Kind() != "Syntax" {
		t.Fatalf("expected syntax error, got %v", errs)
	}
	if errs[0].Pos().Line != 1 {
		t.Errorf("expected error on line 1, got %d", errs[0].Pos().Line)
	}
}

func TestSessionStrictConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Strict = true
	s, _, _ := newTestSession(t, WithConfig(cfg))
	_, errs := s.RunString(context.Background(), "undeclaredName = 1")
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "ReferenceError") {
		t.Errorf("expected ReferenceError in strict session, got %v", errs)
	}
}

func TestSessionCancelledContext(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, errs := s.RunString(ctx, "globalThis.ran = true")
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "interrupted") {
		t.Fatalf("expected interrupted error, got %v", errs)
	}
	v, _ := s.RunString(context.Background(), "typeof ran")
	if v.Inspect() != "undefined" {
		t.Errorf("expected script not to run, got typeof ran = %s", v.Inspect())
	}
}

func TestSessionPrelude(t *testing.T) {
	mem := host.NewMemoryResolver("test")
	mem.AddScript("lib/helpers.js", "function double(n) { return n * 2; }")

	cfg := config.Default()
	cfg.Prelude = []string{"lib/helpers"}
	s, _, _ := newTestSession(t, WithConfig(cfg), WithResolvers(mem))

	v, errs := s.RunString(context.Background(), "double(21)")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if v.Inspect() != "42" {
		t.Errorf("expected 42, got %s", v.Inspect())
	}
}

func TestSessionPreludeFailure(t *testing.T) {
	mem := host.NewMemoryResolver("test")
	mem.AddScript("broken.js", "throw new Error('bad prelude')")

	tests := []struct {
		prelude string
		want    string
	}{
		{"broken", "bad prelude"},
		{"absent", "absent"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Prelude = []string{tt.prelude}
		var out bytes.Buffer
		_, err := NewSession(context.Background(), WithConfig(cfg), WithResolvers(mem), WithOutput(&out, &out))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("prelude %s: expected error containing %q, got %v", tt.prelude, tt.want, err)
		}
	}
}

func TestSessionRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	if err := os.WriteFile(path, []byte("const x = 6;\nx * 7;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _, _ := newTestSession(t, WithBaseDir(dir))
	v, errs := s.RunFile(context.Background(), path)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if v.Inspect() != "42" {
		t.Errorf("expected 42, got %s", v.Inspect())
	}

	_, errs = s.RunFile(context.Background(), filepath.Join(dir, "missing.js"))
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "failed to read file") {
		t.Errorf("expected read error, got %v", errs)
	}
}

func TestSessionSeparateRealms(t *testing.T) {
	a, _, _ := newTestSession(t)
	b, _, _ := newTestSession(t)
	a.RunString(context.Background(), "globalThis.shared = 1; Array.prototype.extra = 1;")
	v, _ := b.RunString(context.Background(), "typeof shared + ':' + typeof [].extra")
	if v.Inspect() != "undefined:undefined" {
		t.Errorf("expected realms to be isolated, got %s", v.Inspect())
	}
	if a.Realm() == b.Realm() || a.Realm().ID() == b.Realm().ID() {
		t.Errorf("expected distinct realms")
	}
}

func TestDisplayResult(t *testing.T) {
	s, stdout, stderr := newTestSession(t)
	ctx := context.Background()

	v, errs := s.RunString(ctx, "[1, 2, 3].length")
	if !s.DisplayResult("[1, 2, 3].length", v, errs) {
		t.Errorf("expected DisplayResult to succeed")
	}
	if stdout.String() != "3\n" {
		t.Errorf("expected 3 on stdout, got %q", stdout.String())
	}

	stdout.Reset()
	v, errs = s.RunString(ctx, "undefined")
	s.DisplayResult("undefined", v, errs)
	if stdout.Len() != 0 {
		t.Errorf("expected nothing printed for undefined, got %q", stdout.String())
	}

	code := "nope()"
	v, errs = s.RunString(ctx, code)
	if s.DisplayResult(code, v, errs) {
		t.Errorf("expected DisplayResult to report failure")
	}
	if !strings.Contains(stderr.String(), "nope is not defined") {
		t.Errorf("expected error on stderr, got %q", stderr.String())
	}
}

func TestSessionAgentAccessor(t *testing.T) {
	s, _, _ := newTestSession(t)
	if s.Agent() == nil || s.Agent().CurrentRealm() != s.Realm() {
		t.Errorf("expected agent to be running the session realm")
	}
	if _, ok := s.Agent().Host.(*host.Host); !ok {
		t.Errorf("expected session host, got %T", s.Agent().Host)
	}
}
