package builtins

import (
	"io"

	"escore/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Array", "String", "Math")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates the module's intrinsics on the realm and
	// declares its global bindings
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	Agent *vm.Agent
	Realm *vm.Realm

	// DefineGlobal declares a global binding. Globals are defined on the
	// global object once it exists, in declaration order.
	DefineGlobal func(name string, value vm.Value) error

	// Prototypes created by the core before any initializer runs
	ObjectPrototype   *vm.Object
	FunctionPrototype *vm.Object

	// Console output
	Stdout io.Writer
	Stderr io.Writer
}

// Priority constants for initialization order
const (
	PriorityObject   = 0  // Object must be first (base prototype)
	PriorityFunction = 1  // Function second (inherits from Object)
	PriorityError    = 2  // Error family, needed by everything that throws
	PrioritySymbol   = 3  // Symbol constructor and prototype
	PriorityIterator = 4  // %IteratorPrototype% (needed for iterables)
	PriorityArray    = 5  // Array and %ArrayIteratorPrototype%
	PriorityString   = 10 // String primitives
	PriorityNumber   = 11 // Number primitives
	PriorityBoolean  = 12 // Boolean primitives
	PriorityRegExp   = 13 // RegExp constructor
	PriorityReflect  = 20 // Reflect namespace
	PriorityProxy    = 21 // Proxy constructor
	PriorityMath     = 100
	PriorityJSON     = 101
	PriorityConsole  = 102
	PriorityGlobals  = 103 // global functions and queueMicrotask
)
