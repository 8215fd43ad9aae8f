package value

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/text/language"
)

// Converter turns text into a value of the type it was registered for.
type Converter func(text string, culture language.Tag) (any, error)

// ConverterTable maps exact Go types to custom converters.
// It is safe for concurrent use.
type ConverterTable struct {
	mu sync.RWMutex
	m  map[reflect.Type]Converter
}

// DefaultConverters is the process-wide converter table used by resolvers
// that are not given their own.
var DefaultConverters = NewConverterTable()

// NewConverterTable returns an empty table.
func NewConverterTable() *ConverterTable {
	return &ConverterTable{m: make(map[reflect.Type]Converter)}
}

// Register installs fn for t. Registering a second converter for the same
// type is an error.
func (c *ConverterTable) Register(t reflect.Type, fn Converter) error {
	if t == nil || fn == nil {
		return fmt.Errorf("converter registration needs a type and a function")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[t]; exists {
		return fmt.Errorf("converter for %s already registered", t)
	}
	c.m[t] = fn
	return nil
}

// Unregister removes the converter for t, if any.
func (c *ConverterTable) Unregister(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, t)
}

// Clear removes every converter.
func (c *ConverterTable) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.m)
}

// Lookup returns the converter registered for t.
func (c *ConverterTable) Lookup(t reflect.Type) (Converter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.m[t]
	return fn, ok
}

// RegisterConverter is the typed form of ConverterTable.Register.
func RegisterConverter[T any](c *ConverterTable, fn func(text string, culture language.Tag) (T, error)) error {
	return c.Register(reflect.TypeFor[T](), func(text string, culture language.Tag) (any, error) {
		return fn(text, culture)
	})
}
