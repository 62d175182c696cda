package builtins

import "sort"

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	initializers := []BuiltinInitializer{
		&ObjectInitializer{},
		&FunctionInitializer{},
		&ErrorInitializer{},
		&SymbolInitializer{},
		&IteratorInitializer{},
		&ArrayInitializer{},
		&StringInitializer{},
		&NumberInitializer{},
		&BooleanInitializer{},
		&RegExpInitializer{},
		&ReflectInitializer{},
		&ProxyInitializer{},
		&MathInitializer{},
		&JSONInitializer{},
		&ConsoleInitializer{},
		&GlobalsInitializer{},
	}

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}
