package catalog

import (
	"reflect"
	"strings"
)

// TagName is the struct tag that renames a member for documents. A value of
// "-" hides the field.
const TagName = "def"

// Member is a settable struct field located by a MemberLookup.
type Member struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// Field returns the field of v, a struct value, allocating nil embedded
// pointers on the way.
func (m Member) Field(v reflect.Value) reflect.Value {
	for i, x := range m.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// MemberLookup finds the member of a struct type that a document name
// refers to.
type MemberLookup interface {
	FindMember(t reflect.Type, name string) (Member, bool)
}

// MemberLookupFunc adapts a function to MemberLookup.
type MemberLookupFunc func(t reflect.Type, name string) (Member, bool)

// FindMember calls f.
func (f MemberLookupFunc) FindMember(t reflect.Type, name string) (Member, bool) { return f(t, name) }

// DefaultLookup matches the def tag, then the exact field name, then the
// field name ignoring case.
var DefaultLookup MemberLookup = fieldLookup{foldCase: true}

// ExactLookup matches the def tag, then the exact field name.
var ExactLookup MemberLookup = fieldLookup{}

type fieldLookup struct {
	foldCase bool
}

func (l fieldLookup) FindMember(t reflect.Type, name string) (Member, bool) {
	if t.Kind() != reflect.Struct {
		return Member{}, false
	}
	fields := settable(t)

	for _, f := range fields {
		if tag := tagName(f); tag != "" && tag == name {
			return member(f), true
		}
	}
	for _, f := range fields {
		if f.Name == name && tagName(f) == "" {
			return member(f), true
		}
	}
	if l.foldCase {
		for _, f := range fields {
			if strings.EqualFold(f.Name, name) && tagName(f) == "" {
				return member(f), true
			}
		}
	}
	return Member{}, false
}

func settable(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Tag.Get(TagName) == "-" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tagName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
	return tag
}

func member(f reflect.StructField) Member {
	return Member{Name: f.Name, Type: f.Type, Index: f.Index}
}

// ListMethods returns the list capabilities of t: exported methods named Add
// or Append in the pointer method set that take exactly one non-variadic
// argument and return nothing or an error.
func ListMethods(t reflect.Type) []reflect.Method {
	pt := t
	if pt.Kind() != reflect.Pointer {
		pt = reflect.PointerTo(t)
	}
	var out []reflect.Method
	for _, name := range []string{"Add", "Append"} {
		m, ok := pt.MethodByName(name)
		if !ok {
			continue
		}
		ft := m.Type
		if ft.NumIn() != 2 || ft.IsVariadic() {
			continue
		}
		if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != errorType) {
			continue
		}
		out = append(out, m)
	}
	return out
}
