package vm

// Symbol is a unique, non-string property key. Identity is pointer identity.
type Symbol struct {
	description Value // undefined or a string
}

func NewSymbol(description Value) *Symbol {
	return &Symbol{description: description}
}

// Description returns the [[Description]] slot (undefined or a string).
func (s *Symbol) Description() Value { return s.description }

// DescriptiveString implements SymbolDescriptiveString.
func (s *Symbol) DescriptiveString() string {
	if s.description.IsString() {
		return "Symbol(" + s.description.str + ")"
	}
	return "Symbol()"
}

// Well-known symbols are shared by every realm of every agent.
var (
	SymAsyncIterator      = NewSymbol(StringValue("Symbol.asyncIterator"))
	SymHasInstance        = NewSymbol(StringValue("Symbol.hasInstance"))
	SymIsConcatSpreadable = NewSymbol(StringValue("Symbol.isConcatSpreadable"))
	SymIterator           = NewSymbol(StringValue("Symbol.iterator"))
	SymMatch              = NewSymbol(StringValue("Symbol.match"))
	SymReplace            = NewSymbol(StringValue("Symbol.replace"))
	SymSearch             = NewSymbol(StringValue("Symbol.search"))
	SymSpecies            = NewSymbol(StringValue("Symbol.species"))
	SymSplit              = NewSymbol(StringValue("Symbol.split"))
	SymToPrimitive        = NewSymbol(StringValue("Symbol.toPrimitive"))
	SymToStringTag        = NewSymbol(StringValue("Symbol.toStringTag"))
	SymUnscopables        = NewSymbol(StringValue("Symbol.unscopables"))
)

// WellKnownSymbols lists the well-known symbols by their property name on
// the Symbol constructor.
var WellKnownSymbols = map[string]*Symbol{
	"asyncIterator":      SymAsyncIterator,
	"hasInstance":        SymHasInstance,
	"isConcatSpreadable": SymIsConcatSpreadable,
	"iterator":           SymIterator,
	"match":              SymMatch,
	"replace":            SymReplace,
	"search":             SymSearch,
	"species":            SymSpecies,
	"split":              SymSplit,
	"toPrimitive":        SymToPrimitive,
	"toStringTag":        SymToStringTag,
	"unscopables":        SymUnscopables,
}

// SymbolRegistry is the agent-wide GlobalSymbolRegistry behind Symbol.for.
type SymbolRegistry struct {
	byKey map[string]*Symbol
	bySym map[*Symbol]string
}

func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{byKey: make(map[string]*Symbol), bySym: make(map[*Symbol]string)}
}

// For returns the registered symbol for key, creating it on first use.
func (r *SymbolRegistry) For(key string) *Symbol {
	if s, ok := r.byKey[key]; ok {
		return s
	}
	s := NewSymbol(StringValue(key))
	r.byKey[key] = s
	r.bySym[s] = key
	return s
}

// KeyFor returns the registry key of s, if it was created by For.
func (r *SymbolRegistry) KeyFor(s *Symbol) (string, bool) {
	key, ok := r.bySym[s]
	return key, ok
}
