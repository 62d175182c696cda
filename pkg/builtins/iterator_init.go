package builtins

import (
	"escore/pkg/vm"
)

type IteratorInitializer struct{}

func (i *IteratorInitializer) Name() string {
	return "Iterator"
}

func (i *IteratorInitializer) Priority() int {
	return PriorityIterator
}

// InitRuntime creates %IteratorPrototype%, the prototype every builtin
// iterator inherits its @@iterator method from.
func (i *IteratorInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)
	defineSymbolMethod(ctx, proto, vm.SymIterator, 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return this, nil
	})
	ctx.Realm.SetIntrinsic("%IteratorPrototype%", proto)
	return nil
}

// iterationKind selects what a list iterator yields.
type iterationKind uint8

const (
	iterateKeys iterationKind = iota
	iterateValues
	iterateEntries
)

// listIterator is the state behind an Array Iterator or String Iterator
// object, kept in the object's "Iterator" slot.
type listIterator struct {
	target vm.Value
	index  int64
	kind   iterationKind
	done   bool
}

const iteratorSlot = "Iterator"

// newListIterator creates an iterator object over target with proto as
// its prototype.
func newListIterator(proto *vm.Object, target vm.Value, kind iterationKind) *vm.Object {
	it := vm.OrdinaryObjectCreate(proto)
	it.SetSlot(iteratorSlot, &listIterator{target: target, kind: kind})
	return it
}

func thisListIterator(a *vm.Agent, this vm.Value, method string) (*listIterator, error) {
	if this.IsObject() {
		if s, ok := this.AsObject().Slot(iteratorSlot); ok {
			if it, ok := s.(*listIterator); ok {
				return it, nil
			}
		}
	}
	return nil, a.NewTypeError("%s called on incompatible receiver %s", method, this.Inspect())
}
