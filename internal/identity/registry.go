package identity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// State is the loading phase of a Registry.
type State int

const (
	Uninitialized State = iota
	KeysLoaded
	ObjectsLoaded
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case KeysLoaded:
		return "keys-loaded"
	case ObjectsLoaded:
		return "objects-loaded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Registry indexes objects of type T by key, GlobalID and LocalID.
type Registry[T Object] struct {
	name     string
	state    State
	limit    int
	keys     map[string]GlobalID
	byGlobal map[GlobalID]LocalID
	objects  []T // objects[i] has LocalID i+1
}

// New returns an empty registry. The name is the prefix used by
// "name:key" references.
func New[T Object](name string) *Registry[T] {
	r := &Registry[T]{name: name, limit: int(MaxLocalID)}
	r.reset()
	return r
}

func (r *Registry[T]) reset() {
	r.state = Uninitialized
	r.keys = make(map[string]GlobalID)
	r.byGlobal = make(map[GlobalID]LocalID)
	r.objects = nil
}

// Name returns the registry name.
func (r *Registry[T]) Name() string { return r.name }

// State returns the current loading phase.
func (r *Registry[T]) State() State { return r.state }

// Len returns the number of registered objects.
func (r *Registry[T]) Len() int { return len(r.objects) }

// Clear drops every key and object and returns the registry to Uninitialized.
func (r *Registry[T]) Clear() { r.reset() }

// LoadKeys installs the key table. It must be called exactly once before
// LoadObjects. The table is validated as a whole and installed only when
// every key and id is unique.
func (r *Registry[T]) LoadKeys(records []KeyRecord) error {
	if r.state != Uninitialized {
		return loaderr.New(loaderr.ErrKeysAlreadyLoaded, "registry %q is %s", r.name, r.state)
	}

	keys := make(map[string]GlobalID, len(records))
	ids := make(map[GlobalID]string, len(records))
	for _, rec := range records {
		if rec.Key == "" {
			return loaderr.New(loaderr.ErrMissingKey, "registry %q: record for %s has no key", r.name, rec.ID)
		}
		if rec.ID.IsZero() {
			return loaderr.New(loaderr.ErrInvalidID, "registry %q: key %q has a nil id", r.name, rec.Key)
		}
		if prev, dup := keys[rec.Key]; dup && prev != rec.ID {
			return loaderr.New(loaderr.ErrIdentityMismatch, "registry %q: key %q bound to %s and %s", r.name, rec.Key, prev, rec.ID)
		}
		if prev, dup := ids[rec.ID]; dup && prev != rec.Key {
			return loaderr.New(loaderr.ErrDuplicateIdentity, "registry %q: id %s used by %q and %q", r.name, rec.ID, prev, rec.Key)
		}
		keys[rec.Key] = rec.ID
		ids[rec.ID] = rec.Key
	}

	r.keys = keys
	r.state = KeysLoaded
	return nil
}

// LoadObjects registers every object under its own key. Keys must already be
// loaded. Either all objects are registered or, on failure, none are.
func (r *Registry[T]) LoadObjects(objects []T) error {
	switch r.state {
	case Uninitialized:
		return loaderr.New(loaderr.ErrKeysNotLoaded, "registry %q: load keys before objects", r.name)
	case ObjectsLoaded:
		return loaderr.New(loaderr.ErrObjectsAlreadyLoaded, "registry %q", r.name)
	}

	mark := len(r.objects)
	var added []string
	for _, obj := range objects {
		key := obj.Key()
		_, known := r.keys[key]
		if _, err := r.Register(key, obj); err != nil {
			r.rollback(mark, added)
			return err
		}
		if !known {
			added = append(added, key)
		}
	}
	r.state = ObjectsLoaded
	return nil
}

func (r *Registry[T]) rollback(mark int, addedKeys []string) {
	for _, obj := range r.objects[mark:] {
		delete(r.byGlobal, obj.GlobalID())
	}
	clear(r.objects[mark:])
	r.objects = r.objects[:mark]
	for _, k := range addedKeys {
		delete(r.keys, k)
	}
}

// Register adds one object under key and returns its LocalID. LocalIDs are
// handed out sequentially from 1. A failed registration leaves the registry
// untouched.
func (r *Registry[T]) Register(key string, obj T) (LocalID, error) {
	if r.state == Uninitialized {
		return 0, loaderr.New(loaderr.ErrKeysNotLoaded, "registry %q: cannot register %q", r.name, key)
	}
	if key == "" {
		return 0, loaderr.New(loaderr.ErrMissingKey, "registry %q: object has no key", r.name)
	}
	id := obj.GlobalID()
	if id.IsZero() {
		return 0, loaderr.New(loaderr.ErrInvalidID, "registry %q: %q has a nil id", r.name, key)
	}
	if _, dup := r.byGlobal[id]; dup {
		return 0, loaderr.New(loaderr.ErrDuplicateIdentity, "registry %q: id %s already registered", r.name, id)
	}
	if bound, ok := r.keys[key]; ok && bound != id {
		return 0, loaderr.New(loaderr.ErrIdentityMismatch, "registry %q: key %q is bound to %s, object has %s", r.name, key, bound, id)
	}
	if len(r.objects) >= r.limit {
		return 0, loaderr.New(loaderr.ErrRegistryCapacity, "registry %q holds %d objects", r.name, len(r.objects))
	}

	r.objects = append(r.objects, obj)
	local := LocalID(len(r.objects))
	r.keys[key] = id
	r.byGlobal[id] = local
	if s, ok := any(obj).(LocalIDSetter); ok {
		s.SetLocalID(local)
	}
	return local, nil
}

// ByLocal returns the object with the given LocalID.
func (r *Registry[T]) ByLocal(id LocalID) (T, bool) {
	var zero T
	if id == 0 || int(id) > len(r.objects) {
		return zero, false
	}
	return r.objects[id-1], true
}

// ByGlobal returns the object with the given GlobalID.
func (r *Registry[T]) ByGlobal(id GlobalID) (T, bool) {
	local, ok := r.byGlobal[id]
	if !ok {
		var zero T
		return zero, false
	}
	return r.ByLocal(local)
}

// ByKey returns the object registered under key.
func (r *Registry[T]) ByKey(key string) (T, bool) {
	id, ok := r.keys[key]
	if !ok {
		var zero T
		return zero, false
	}
	return r.ByGlobal(id)
}

// ByReference resolves a reference literal against this registry: a
// canonical id, "name:key" with this registry's name, or a bare key.
func (r *Registry[T]) ByReference(text string) (T, error) {
	var zero T
	text = strings.TrimSpace(text)
	if text == "" || text == NoneLiteral {
		return zero, loaderr.New(loaderr.ErrUnresolvedReference, "registry %q: empty reference", r.name)
	}
	if id, err := ParseGlobalID(text); err == nil {
		if obj, ok := r.ByGlobal(id); ok {
			return obj, nil
		}
		return zero, loaderr.New(loaderr.ErrUnresolvedReference, "registry %q: no object with id %s", r.name, id)
	}
	key := text
	if name, rest, ok := strings.Cut(text, ":"); ok {
		if name != r.name {
			return zero, loaderr.New(loaderr.ErrUnresolvedReference, "%q does not name registry %q", text, r.name)
		}
		key = rest
	}
	if obj, ok := r.ByKey(key); ok {
		return obj, nil
	}
	return zero, loaderr.New(loaderr.ErrUnresolvedReference, "registry %q: no object with key %q", r.name, key)
}

// LookupKey returns the GlobalID bound to key. It works from phase one on,
// before the object itself is registered.
func (r *Registry[T]) LookupKey(key string) (GlobalID, bool) {
	id, ok := r.keys[key]
	return id, ok
}

// LocalIDOf returns the LocalID of a registered GlobalID.
func (r *Registry[T]) LocalIDOf(id GlobalID) (LocalID, bool) {
	local, ok := r.byGlobal[id]
	return local, ok
}

// Keys exports the key table sorted by key.
func (r *Registry[T]) Keys() []KeyRecord {
	out := make([]KeyRecord, 0, len(r.keys))
	for k, id := range r.keys {
		out = append(out, KeyRecord{Key: k, ID: id})
	}
	slices.SortFunc(out, func(a, b KeyRecord) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Objects returns the registered objects in LocalID order.
func (r *Registry[T]) Objects() []T {
	return slices.Clone(r.objects)
}
