package catalog

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
)

// Catalog maps class names to registered types and their constructors.
// It is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*entry
	byType map[reflect.Type]*entry
}

type entry struct {
	name  string
	typ   reflect.Type
	ctors []Constructor
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		byName: make(map[string]*entry),
		byType: make(map[reflect.Type]*entry),
	}
}

// FullName returns the class name of t. Pointer types name their element.
func FullName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Register adds t with its constructor functions. Each constructor must
// return T or *T, optionally followed by an error.
func (c *Catalog) Register(t reflect.Type, ctors ...any) error {
	if t == nil {
		return fmt.Errorf("catalog: nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.Kind() == reflect.Interface {
		return fmt.Errorf("catalog: %s is not a named concrete type", t)
	}

	e := &entry{name: FullName(t), typ: t}
	for i, fn := range ctors {
		ctor, err := parseConstructor(t, fn)
		if err != nil {
			return fmt.Errorf("catalog: constructor #%d of %s: %w", i, e.name, err)
		}
		e.ctors = append(e.ctors, ctor)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.byName[e.name]; ok && prev.typ != t {
		return fmt.Errorf("catalog: class name %q is already taken by %s", e.name, prev.typ)
	}
	c.byName[e.name] = e
	c.byType[t] = e
	return nil
}

// MustRegister is like Register but panics on error. Use it from module
// registration code where a failure is a programming error.
func (c *Catalog) MustRegister(t reflect.Type, ctors ...any) {
	if err := c.Register(t, ctors...); err != nil {
		panic(err)
	}
}

// Add registers T.
func Add[T any](c *Catalog, ctors ...any) error {
	return c.Register(reflect.TypeFor[T](), ctors...)
}

// Lookup returns the type registered under name.
func (c *Catalog) Lookup(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return e.typ, true
}

// Registered reports whether t was registered.
func (c *Catalog) Registered(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byType[t]
	return ok
}

// Names returns all class names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Constructors returns the constructors registered for t. Unregistered types
// and types registered without constructors return nil.
func (c *Catalog) Constructors(t reflect.Type) []Constructor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.byType[t]; ok {
		return slices.Clone(e.ctors)
	}
	return nil
}

// Chain returns the embedding chain of t: every embedded struct type,
// depth-first and base before derived, ending with t itself.
func Chain(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)
	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		if seen[t] {
			return
		}
		seen[t] = true
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				if !f.Anonymous {
					continue
				}
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					walk(ft)
				}
			}
		}
		out = append(out, t)
	}
	walk(t)
	return out
}

// Suggest returns registered class names close to name, best first. Both
// the full name and the part after the last dot are compared.
func (c *Catalog) Suggest(name string) []string {
	type scored struct {
		name string
		dist int
	}
	short := shortName(name)
	limit := max(2, len(short)/3)

	var hits []scored
	for _, candidate := range c.Names() {
		d := min(
			levenshtein.Distance(name, candidate, nil),
			levenshtein.Distance(strings.ToLower(short), strings.ToLower(shortName(candidate)), nil),
		)
		if d <= limit {
			hits = append(hits, scored{candidate, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

func shortName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
