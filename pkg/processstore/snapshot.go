package processstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/blackboard"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// Snapshot serializes a process into a Record. Blackboard objects and the
// pending awaitable are JSON-encoded with their unqualified type names;
// binding names are stored as indices into the object sequence so the
// rebuilt blackboard binds the identical object instance.
func Snapshot(p *process.AgentProcess) (Record, error) {
	snap := p.Blackboard().Snapshot()
	objects := snap.Objects()

	stored := make([]StoredObject, len(objects))
	for i, obj := range objects {
		so, err := encodeObject(obj)
		if err != nil {
			return Record{}, fmt.Errorf("object %d: %w", i, err)
		}
		stored[i] = so
	}

	bindings := make(map[string]int)
	for name, obj := range snap.Bindings() {
		for i, candidate := range objects {
			if identical(candidate, obj) {
				bindings[name] = i
				break
			}
		}
	}

	history := make([]HistoryRecord, 0, len(p.History()))
	for _, h := range p.History() {
		history = append(history, HistoryRecord{
			ActionName: h.ActionName,
			StartedAt:  h.StartedAt,
			FinishedAt: h.FinishedAt,
			Outcome:    h.Outcome,
			Error:      h.Error,
		})
	}

	var pending *StoredObject
	if awaitable := p.PendingAwaitable(); awaitable != nil {
		so, err := encodeObject(awaitable)
		if err != nil {
			return Record{}, fmt.Errorf("pending awaitable: %w", err)
		}
		pending = &so
	}

	usage, cost := p.Usage()
	return Record{
		ProcessID: p.ID(),
		AgentName: p.Agent().Name(),
		Status:    p.Status().String(),
		Objects:   stored,
		Bindings:  bindings,
		History:   history,
		Usage:     usage,
		Cost:      cost,
		Pending:   pending,
		UpdatedAt: time.Now(),
	}, nil
}

// TypeRegistry maps stored type names back to Go types for rehydration.
// Types not registered decode to map[string]any, which still preserves
// ordering and binding structure (just not static typing).
type TypeRegistry struct {
	byName map[string]reflect.Type
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byName: make(map[string]reflect.Type)}
}

// RegisterType adds T under its unqualified type name.
func RegisterType[T any](r *TypeRegistry) {
	t := reflect.TypeFor[T]()
	r.byName[t.Name()] = t
}

func (r *TypeRegistry) decode(so StoredObject) (any, error) {
	if r != nil {
		if t, ok := r.byName[so.TypeName]; ok {
			ptr := reflect.New(t)
			if err := json.Unmarshal(so.Data, ptr.Interface()); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", so.TypeName, err)
			}
			return ptr.Elem().Interface(), nil
		}
	}
	var generic map[string]any
	if err := json.Unmarshal(so.Data, &generic); err != nil {
		return nil, fmt.Errorf("decoding %s generically: %w", so.TypeName, err)
	}
	return generic, nil
}

// Rehydrate rebuilds a process's blackboard from a Record: the same
// ordered object sequence and the same bindings (round-trip identity,
// for types present in the registry).
func Rehydrate(rec Record, types *TypeRegistry) (*blackboard.Blackboard, error) {
	bb := blackboard.New()
	decoded := make([]any, len(rec.Objects))
	for i, so := range rec.Objects {
		obj, err := types.decode(so)
		if err != nil {
			return nil, err
		}
		decoded[i] = obj
		bb.Append(obj)
	}
	for name, idx := range rec.Bindings {
		if idx < 0 || idx >= len(decoded) {
			return nil, fmt.Errorf("binding %q points outside the object sequence", name)
		}
		bb.Bind(name, decoded[idx])
	}
	return bb, nil
}

func encodeObject(obj any) (StoredObject, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return StoredObject{}, err
	}
	return StoredObject{TypeName: typeNameOf(obj), Data: data}, nil
}

func typeNameOf(obj any) string {
	t := reflect.TypeOf(obj)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// identical mirrors the blackboard's identity semantics: pointer-shaped
// values (pointers, maps, slices, channels, funcs) match on the identity
// of their underlying data, comparable values on value equality.
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
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	}
	if !av.Type().Comparable() {
		return false
	}
	return a == b
}
