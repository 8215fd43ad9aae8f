package value

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// FlagSeparator joins the members of a flag set, e.g. "Bold|Italic".
const FlagSeparator = "|"

type enumInfo struct {
	flags  bool
	names  []string
	values []uint64
}

// EnumTable holds the enumerations the resolver can parse by name.
// It is safe for concurrent use.
type EnumTable struct {
	mu sync.RWMutex
	m  map[reflect.Type]*enumInfo
}

// DefaultEnums is the process-wide enum table used by resolvers that are not
// given their own.
var DefaultEnums = NewEnumTable()

// NewEnumTable returns an empty table.
func NewEnumTable() *EnumTable {
	return &EnumTable{m: make(map[reflect.Type]*enumInfo)}
}

// RegisterEnum registers the values of an integer-kind type. Each value's
// name is fmt.Sprint(value), so stringer-generated types work unchanged.
func RegisterEnum[T constraints.Integer](t *EnumTable, values ...T) error {
	return register(t, false, values)
}

// RegisterFlags is like RegisterEnum for types whose values combine with
// bitwise OR.
func RegisterFlags[T constraints.Integer](t *EnumTable, values ...T) error {
	return register(t, true, values)
}

func register[T constraints.Integer](t *EnumTable, flags bool, values []T) error {
	typ := reflect.TypeFor[T]()
	info := &enumInfo{flags: flags}
	for _, v := range values {
		name := fmt.Sprint(v)
		if name == "" || strings.Contains(name, FlagSeparator) {
			return fmt.Errorf("enum %s: invalid member name %q", typ, name)
		}
		info.names = append(info.names, name)
		info.values = append(info.values, bits(reflect.ValueOf(v)))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.m[typ]; exists {
		return fmt.Errorf("enum %s already registered", typ)
	}
	t.m[typ] = info
	return nil
}

// Unregister removes an enumeration.
func (t *EnumTable) Unregister(typ reflect.Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, typ)
}

// Has reports whether typ is a registered enumeration.
func (t *EnumTable) Has(typ reflect.Type) bool {
	_, ok := t.lookup(typ)
	return ok
}

func (t *EnumTable) lookup(typ reflect.Type) (*enumInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.m[typ]
	return info, ok
}

// Parse parses text as a member of the registered enumeration typ. Flag
// enumerations accept several members separated by "|" and combine them with
// bitwise OR; any unknown member fails the whole parse. Integer literals
// are accepted in place of names.
func (t *EnumTable) Parse(text string, typ reflect.Type, ignoreCase bool) (reflect.Value, error) {
	info, ok := t.lookup(typ)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%s is not a registered enumeration", typ)
	}

	tokens := strings.Split(text, FlagSeparator)
	if len(tokens) > 1 && !info.flags {
		return reflect.Value{}, loaderr.New(loaderr.ErrFormat, "%q: %s is not a flag set", text, typ)
	}

	var acc uint64
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, ok := info.find(tok, ignoreCase)
		if !ok {
			n, err := parseInteger(tok, typ)
			if err != nil {
				return reflect.Value{}, loaderr.New(loaderr.ErrFormat, "%q: unknown %s member %q", text, typ, tok)
			}
			v = n
		}
		acc |= v
	}

	out := reflect.New(typ).Elem()
	if isUnsigned(typ.Kind()) {
		out.SetUint(acc)
	} else {
		out.SetInt(int64(acc))
	}
	return out, nil
}

func (info *enumInfo) find(name string, ignoreCase bool) (uint64, bool) {
	for i, n := range info.names {
		if n == name || (ignoreCase && strings.EqualFold(n, name)) {
			return info.values[i], true
		}
	}
	return 0, false
}

func parseInteger(tok string, typ reflect.Type) (uint64, error) {
	if isUnsigned(typ.Kind()) {
		return strconv.ParseUint(tok, 0, typ.Bits())
	}
	n, err := strconv.ParseInt(tok, 0, typ.Bits())
	return uint64(n), err
}

func bits(v reflect.Value) uint64 {
	if isUnsigned(v.Kind()) {
		return v.Uint()
	}
	return uint64(v.Int())
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
