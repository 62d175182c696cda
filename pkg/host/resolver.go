package host

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"escore/pkg/source"
)

// Resolver maps a script specifier to its source.
type Resolver interface {
	// Name returns a human-readable name for this resolver
	Name() string

	// CanResolve reports whether the resolver handles the specifier form
	CanResolve(specifier string) bool

	// Resolve loads specifier; fromPath is the path of the referring
	// script, empty at top level.
	Resolve(specifier, fromPath string) (*source.SourceFile, error)

	// Priority orders resolvers (lower = tried first)
	Priority() int
}

// FileSystemResolver resolves relative and absolute specifiers against an
// fs.FS rooted at a base directory.
type FileSystemResolver struct {
	name       string
	fsys       fs.FS
	baseDir    string
	priority   int
	extensions []string
	indexFiles []string
}

// NewFileSystemResolver resolves against fsys, reporting paths under
// baseDir.
func NewFileSystemResolver(fsys fs.FS, baseDir string) *FileSystemResolver {
	return &FileSystemResolver{
		name:       "FileSystem",
		fsys:       fsys,
		baseDir:    baseDir,
		priority:   100,
		extensions: []string{".js", ".mjs", ".cjs"},
		indexFiles: []string{"index.js"},
	}
}

// NewOSFileSystemResolver resolves against the operating system's files
// below baseDir.
func NewOSFileSystemResolver(baseDir string) *FileSystemResolver {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = baseDir
	}
	r := NewFileSystemResolver(os.DirFS(abs), abs)
	r.name = "OSFileSystem"
	return r
}

func (r *FileSystemResolver) Name() string  { return r.name }
func (r *FileSystemResolver) Priority() int { return r.priority }

func (r *FileSystemResolver) CanResolve(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/") ||
		filepath.IsAbs(specifier) ||
		strings.HasSuffix(specifier, ".js")
}

func (r *FileSystemResolver) Resolve(specifier, fromPath string) (*source.SourceFile, error) {
	target, err := r.targetPath(specifier, fromPath)
	if err != nil {
		return nil, err
	}
	resolved, err := r.tryResolve(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", specifier, err)
	}
	data, err := fs.ReadFile(r.fsys, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", resolved, err)
	}
	return source.FromFile(filepath.Join(r.baseDir, filepath.FromSlash(resolved)), string(data)), nil
}

// targetPath turns specifier into a slash-separated path relative to the
// resolver root.
func (r *FileSystemResolver) targetPath(specifier, fromPath string) (string, error) {
	spec := filepath.ToSlash(specifier)
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		if fromPath == "" {
			if strings.HasPrefix(spec, "../") {
				return "", fmt.Errorf("relative specifier %s requires a referrer", specifier)
			}
			return path.Clean(spec), nil
		}
		from := filepath.ToSlash(fromPath)
		if r.baseDir != "" {
			if rel, err := filepath.Rel(r.baseDir, fromPath); err == nil {
				from = filepath.ToSlash(rel)
			}
		}
		return path.Join(path.Dir(from), spec), nil
	case filepath.IsAbs(specifier) || strings.HasPrefix(spec, "/"):
		// Absolute paths below the base directory are taken as is; any
		// other absolute path is rooted at the resolver.
		if r.baseDir != "" {
			if rel, err := filepath.Rel(r.baseDir, specifier); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel), nil
			}
		}
		return path.Clean(strings.TrimPrefix(spec, "/")), nil
	}
	return path.Clean(spec), nil
}

func (r *FileSystemResolver) tryResolve(target string) (string, error) {
	if strings.HasPrefix(target, "../") || target == ".." {
		return "", fmt.Errorf("%s escapes the resolver root", target)
	}
	if r.isFile(target) {
		return target, nil
	}
	for _, ext := range r.extensions {
		if r.isFile(target + ext) {
			return target + ext, nil
		}
	}
	for _, index := range r.indexFiles {
		p := path.Join(target, index)
		if r.isFile(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("script not found: %s", target)
}

func (r *FileSystemResolver) isFile(p string) bool {
	info, err := fs.Stat(r.fsys, p)
	return err == nil && !info.IsDir()
}

// MemoryResolver resolves specifiers from an in-memory store, mostly for
// tests and embedding.
type MemoryResolver struct {
	name     string
	mu       sync.RWMutex
	scripts  map[string]string
	priority int
}

func NewMemoryResolver(name string) *MemoryResolver {
	if name == "" {
		name = "Memory"
	}
	return &MemoryResolver{
		name:     name,
		scripts:  make(map[string]string),
		priority: 50,
	}
}

func (r *MemoryResolver) Name() string  { return r.name }
func (r *MemoryResolver) Priority() int { return r.priority }

func (r *MemoryResolver) CanResolve(specifier string) bool {
	_, _, ok := r.find(specifier, "")
	return ok
}

func (r *MemoryResolver) Resolve(specifier, fromPath string) (*source.SourceFile, error) {
	p, content, ok := r.find(specifier, fromPath)
	if !ok {
		return nil, fmt.Errorf("script not found: %s", specifier)
	}
	return source.NewSourceFile(p, p, content), nil
}

func (r *MemoryResolver) find(specifier, fromPath string) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := specifier
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		if fromPath != "" {
			p = path.Join(path.Dir(fromPath), p)
		} else {
			p = path.Clean(p)
		}
	}
	candidates := []string{p, p + ".js", path.Join(p, "index.js")}
	for _, c := range candidates {
		if content, ok := r.scripts[c]; ok {
			return c, content, true
		}
	}
	return "", "", false
}

// AddScript stores content under path, replacing any previous entry.
func (r *MemoryResolver) AddScript(path, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[path] = content
}

func (r *MemoryResolver) RemoveScript(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scripts, path)
}

// ListScripts returns the stored paths in sorted order.
func (r *MemoryResolver) ListScripts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.scripts))
	for p := range r.scripts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (r *MemoryResolver) SetPriority(priority int) {
	r.priority = priority
}
