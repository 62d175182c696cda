package host

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFileSystemResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"main.js":          {Data: []byte("main")},
		"lib/util.js":      {Data: []byte("util")},
		"lib/index.js":     {Data: []byte("lib index")},
		"lib/nested/a.mjs": {Data: []byte("a")},
	}
	r := NewFileSystemResolver(fsys, "/project")

	tests := []struct {
		specifier string
		fromPath  string
		want      string
	}{
		{"./main.js", "", "main"},
		{"./main", "", "main"},
		{"./lib", "", "lib index"},
		{"./util", "/project/lib/index.js", "util"},
		{"../main.js", "/project/lib/util.js", "main"},
		{"./nested/a", "/project/lib/util.js", "a"},
		{"/lib/util.js", "", "util"},
		{"main.js", "", "main"},
	}
	for _, tt := range tests {
		src, err := r.Resolve(tt.specifier, tt.fromPath)
		if err != nil {
			t.Errorf("Resolve(%q, %q): unexpected error: %v", tt.specifier, tt.fromPath, err)
			continue
		}
		if src.Content != tt.want {
			t.Errorf("Resolve(%q, %q): expected %q, got %q", tt.specifier, tt.fromPath, tt.want, src.Content)
		}
	}

	for _, spec := range []string{"./missing.js", "../outside.js"} {
		if _, err := r.Resolve(spec, ""); err == nil {
			t.Errorf("Resolve(%q): expected an error", spec)
		}
	}
}

func TestFileSystemResolverPaths(t *testing.T) {
	fsys := fstest.MapFS{"lib/util.js": {Data: []byte("util")}}
	r := NewFileSystemResolver(fsys, "/project")
	src, err := r.Resolve("./lib/util", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/project", "lib", "util.js")
	if src.Path != want {
		t.Errorf("expected path %q, got %q", want, src.Path)
	}
	if src.Name != "util.js" {
		t.Errorf("expected name util.js, got %q", src.Name)
	}
}

func TestOSFileSystemResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "script.js"), []byte("1 + 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewOSFileSystemResolver(dir)
	src, err := r.Resolve(filepath.Join(dir, "script.js"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Content != "1 + 1" {
		t.Errorf("expected script content, got %q", src.Content)
	}
}

func TestMemoryResolver(t *testing.T) {
	r := NewMemoryResolver("")
	if r.Name() != "Memory" {
		t.Errorf("expected default name Memory, got %s", r.Name())
	}
	r.AddScript("prelude.js", "var p = 1;")
	r.AddScript("lib/index.js", "var l = 1;")
	r.AddScript("lib/helper.js", "var h = 1;")

	tests := []struct {
		specifier string
		fromPath  string
		wantPath  string
	}{
		{"prelude.js", "", "prelude.js"},
		{"prelude", "", "prelude.js"},
		{"lib", "", "lib/index.js"},
		{"./helper", "lib/index.js", "lib/helper.js"},
		{"../prelude", "lib/index.js", "prelude.js"},
	}
	for _, tt := range tests {
		src, err := r.Resolve(tt.specifier, tt.fromPath)
		if err != nil {
			t.Errorf("Resolve(%q, %q): unexpected error: %v", tt.specifier, tt.fromPath, err)
			continue
		}
		if src.Path != tt.wantPath {
			t.Errorf("Resolve(%q, %q): expected %q, got %q", tt.specifier, tt.fromPath, tt.wantPath, src.Path)
		}
	}

	if r.CanResolve("missing") {
		t.Error("expected missing script not to be resolvable")
	}
	r.RemoveScript("prelude.js")
	if r.CanResolve("prelude.js") {
		t.Error("expected removed script not to be resolvable")
	}
	if got := r.ListScripts(); len(got) != 2 || got[0] != "lib/helper.js" {
		t.Errorf("expected sorted remaining scripts, got %v", got)
	}
}
