// Package blackboard provides the per-process typed object store that backs
// condition evaluation and plan execution. A Blackboard is private to a
// single AgentProcess and requires no locking across processes; within a
// process the executor is single-threaded (see pkg/process), so the
// Blackboard itself does not synchronize access.
package blackboard

import "reflect"

// Blackboard is an ordered sequence of appended objects plus a mapping from
// binding names to objects. Objects are never mutated once appended — a
// new value is always appended rather than edited in place.
type Blackboard struct {
	objects  []any
	bindings map[string]any
}

// New creates an empty Blackboard.
func New() *Blackboard {
	return &Blackboard{
		bindings: make(map[string]any),
	}
}

// Append adds obj to the end of the object sequence. No deduplication is
// performed — the same value may be appended more than once.
func (b *Blackboard) Append(obj any) {
	b.objects = append(b.objects, obj)
}

// Bind sets the name → obj mapping (last write wins) and appends obj to the
// object sequence if it is not already present (by identity, or by value
// equality for comparable non-pointer types).
func (b *Blackboard) Bind(name string, obj any) {
	if !b.contains(obj) {
		b.objects = append(b.objects, obj)
	}
	b.bindings[name] = obj
}

// Get returns the object bound to name, if any.
func (b *Blackboard) Get(name string) (any, bool) {
	obj, ok := b.bindings[name]
	return obj, ok
}

// LastOfType returns the most recently appended object assignable to a
// variable of type T, scanning from the end of the object sequence.
// "Last appended" is the only semantics this package implements — see
// DESIGN.md for the historical ambiguity this resolves.
func LastOfType[T any](b *Blackboard) (T, bool) {
	var zero T
	target := reflect.TypeFor[T]()
	for i := len(b.objects) - 1; i >= 0; i-- {
		if v, ok := assignableTo[T](b.objects[i], target); ok {
			return v, true
		}
	}
	return zero, false
}

// AllOfType returns every appended object assignable to T, oldest first.
func AllOfType[T any](b *Blackboard) []T {
	target := reflect.TypeFor[T]()
	var out []T
	for _, obj := range b.objects {
		if v, ok := assignableTo[T](obj, target); ok {
			out = append(out, v)
		}
	}
	return out
}

// Last returns the most recently appended object, regardless of type, and
// whether the blackboard is non-empty. Used by the "last result of type T"
// condition (see pkg/worldstate).
func (b *Blackboard) Last() (any, bool) {
	if len(b.objects) == 0 {
		return nil, false
	}
	return b.objects[len(b.objects)-1], true
}

// Len returns the number of appended objects.
func (b *Blackboard) Len() int {
	return len(b.objects)
}

// Snapshot returns an immutable view of the blackboard suitable for passing
// to condition evaluators. The snapshot shares no mutable state with the
// live Blackboard: further Appends/Binds on b are not visible through the
// returned Snapshot.
func (b *Blackboard) Snapshot() *Snapshot {
	objs := make([]any, len(b.objects))
	copy(objs, b.objects)
	binds := make(map[string]any, len(b.bindings))
	for k, v := range b.bindings {
		binds[k] = v
	}
	return &Snapshot{objects: objs, bindings: binds}
}

// contains reports whether obj is already present in the object sequence.
// Pointer-shaped values (pointers, maps, slices, channels, funcs) are
// compared by the identity of their underlying data; comparable values by
// value.
func (b *Blackboard) contains(obj any) bool {
	for _, existing := range b.objects {
		if identical(existing, obj) {
			return true
		}
	}
	return false
}

func identical(a, b any) bool {
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if !av.IsValid() || !bv.IsValid() {
		return !av.IsValid() && !bv.IsValid()
	}
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func, reflect.Map, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		// Same backing array AND same length: a re-slice is a different
		// object even when it starts at the same element.
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	}
	if !av.Type().Comparable() {
		// Structs containing uncomparable fields have no usable identity;
		// treat every instance as distinct.
		return false
	}
	return a == b
}

// Snapshot is an immutable, point-in-time view of a Blackboard's contents.
type Snapshot struct {
	objects  []any
	bindings map[string]any
}

// Get returns the object bound to name in this snapshot.
func (s *Snapshot) Get(name string) (any, bool) {
	obj, ok := s.bindings[name]
	return obj, ok
}

// Objects returns every appended object, oldest first. Used where a
// string-keyed type tag (rather than a compile-time Go type parameter)
// must be matched against blackboard contents — see
// process.goalSatisfied, which checks a Goal.SatisfiedByType tag supplied
// by config-driven agents.
func (s *Snapshot) Objects() []any {
	return append([]any(nil), s.objects...)
}

// Bindings returns a copy of the snapshot's name → object map. Used by
// persistence (pkg/processstore) when serializing a process.
func (s *Snapshot) Bindings() map[string]any {
	out := make(map[string]any, len(s.bindings))
	for k, v := range s.bindings {
		out[k] = v
	}
	return out
}

// Last returns the most recently appended object in this snapshot.
func (s *Snapshot) Last() (any, bool) {
	if len(s.objects) == 0 {
		return nil, false
	}
	return s.objects[len(s.objects)-1], true
}

// LastOfTypeSnapshot returns the most recently appended object in s
// assignable to T.
func LastOfTypeSnapshot[T any](s *Snapshot) (T, bool) {
	var zero T
	target := reflect.TypeFor[T]()
	for i := len(s.objects) - 1; i >= 0; i-- {
		if v, ok := assignableTo[T](s.objects[i], target); ok {
			return v, true
		}
	}
	return zero, false
}

// AllOfTypeSnapshot returns every object in s assignable to T, oldest first.
func AllOfTypeSnapshot[T any](s *Snapshot) []T {
	target := reflect.TypeFor[T]()
	var out []T
	for _, obj := range s.objects {
		if v, ok := assignableTo[T](obj, target); ok {
			out = append(out, v)
		}
	}
	return out
}

// HasType reports whether s contains any object assignable to T. Backs the
// "object of type T present" computed condition.
func HasType[T any](s *Snapshot) bool {
	_, ok := LastOfTypeSnapshot[T](s)
	return ok
}

// Len returns the number of objects held by the snapshot.
func (s *Snapshot) Len() int {
	return len(s.objects)
}

func assignableTo[T any](obj any, target reflect.Type) (T, bool) {
	var zero T
	if obj == nil {
		return zero, false
	}
	if v, ok := obj.(T); ok {
		return v, true
	}
	objType := reflect.TypeOf(obj)
	if objType.AssignableTo(target) {
		return reflect.ValueOf(obj).Interface().(T), true
	}
	return zero, false
}
