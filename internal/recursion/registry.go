package recursion

import "reflect"

// Key identifies a produced target by the address and type of its source
// object and the target type.
type Key struct {
	Address uintptr
	Source  reflect.Type
	Target  reflect.Type
}

// KeyOf returns the registry key of a source pointer. It reports false for
// values without a stable identity: non pointers and nil pointers.
func KeyOf(source reflect.Value, target reflect.Type) (Key, bool) {
	if !source.IsValid() || source.Kind() != reflect.Pointer || source.IsNil() {
		return Key{}, false
	}

	return Key{Address: source.Pointer(), Source: source.Type().Elem(), Target: target}, true
}

// Entry is a target registered for a source object.
type Entry struct {
	// Value is the produced target: a pointer for pointer targets, else the
	// addressable value being populated.
	Value reflect.Value
	// Complete is set once every member of the target is populated.
	Complete bool
}

// Registry maps source objects to the targets produced for them during one
// root mapping call. It is not safe for concurrent use; every root call owns
// its own registry and nested mappings write through to it.
type Registry struct {
	entries map[Key]*Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]*Entry)}
}

// Lookup returns the entry registered for the key.
func (r *Registry) Lookup(key Key) (*Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Register records the target created for a source object. It must be called
// after the target is created and before its members are populated, so that
// nested references to the same source resolve to it.
func (r *Registry) Register(key Key, value reflect.Value) *Entry {
	e := &Entry{Value: value}
	r.entries[key] = e

	return e
}

// Len returns the number of registered targets.
func (r *Registry) Len() int { return len(r.entries) }
