package construct

import (
	"context"
	"reflect"

	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/loadctx"
	"github.com/specialistvlad/definer/internal/loaderr"
)

// elementValue produces a value of type t from el: a collection when t is
// a slice or array, a nested object when el has attributes or children or
// is an empty list element, and a resolved text value otherwise.
func (s *session) elementValue(ctx context.Context, el doctree.Element, t reflect.Type) (reflect.Value, error) {
	switch {
	case isArray(t):
		return s.array(ctx, el, t)
	case t.Kind() == reflect.Pointer && isArray(t.Elem()):
		if !el.HasContent() && el.Value() == "" {
			return reflect.Zero(t), nil
		}
		v, err := s.array(ctx, el, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	case el.HasContent(), el.Value() == "" && isList(t):
		return s.nested(ctx, el, t)
	}

	v, err := s.res.Resolve(el.Value(), t)
	if err != nil {
		return reflect.Value{}, loaderr.Locate(el, err)
	}
	return v, nil
}

// isArray reports whether t takes the array shape. Byte slices are text
// (base64) and slice types with a list capability are lists.
func isArray(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return false
		}
	default:
		return false
	}
	return len(catalog.ListMethods(t)) == 0
}

// isList reports whether t, or the type it points to, has a list capability.
func isList(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return len(catalog.ListMethods(t)) > 0
}

// nested builds a nested object of the declared type t, or of the class
// named by a Type attribute.
func (s *session) nested(ctx context.Context, el doctree.Element, t reflect.Type) (reflect.Value, error) {
	want := t
	if t.Kind() == reflect.Pointer {
		want = t.Elem()
	}
	if want.Kind() != reflect.Struct && want.Kind() != reflect.Interface && len(catalog.ListMethods(want)) == 0 {
		return reflect.Value{}, loaderr.At(el, loaderr.ErrInvalidMemberType, "%s cannot be built from nested content", t)
	}
	return s.object(ctx, el, t, loadctx.TypeAttr)
}

// items returns the Item elements of el's single Items child.
func items(el doctree.Element, t reflect.Type) ([]doctree.Element, error) {
	for _, child := range el.Elements() {
		if child.Name() != ItemsElement && !loadctx.Reserved(child.Name()) {
			return nil, loaderr.At(child, loaderr.ErrInvalidMemberType, "%s member accepts only an %s child", t, ItemsElement)
		}
	}
	block, ok, err := el.Element(ItemsElement)
	if err != nil || !ok {
		return nil, err
	}
	return itemElements(block)
}

func itemElements(block doctree.Element) ([]doctree.Element, error) {
	if attrs := block.Attributes(); len(attrs) > 0 {
		return nil, loaderr.At(attrs[0], loaderr.ErrInvalidMemberType, "%s block cannot carry attributes", ItemsElement)
	}
	list := block.Elements()
	for _, item := range list {
		if item.Name() != ItemElement {
			return nil, loaderr.At(item, loaderr.ErrInvalidMemberType, "%s block may only contain %s elements, found %q", ItemsElement, ItemElement, item.Name())
		}
	}
	return list, nil
}

// array fills a slice or array from the Items block.
func (s *session) array(ctx context.Context, el doctree.Element, t reflect.Type) (reflect.Value, error) {
	list, err := items(el, t)
	if err != nil {
		return reflect.Value{}, err
	}

	var out reflect.Value
	if t.Kind() == reflect.Array {
		if len(list) != t.Len() {
			return reflect.Value{}, loaderr.At(el, loaderr.ErrInvalidMemberType, "%s needs %d items, got %d", t, t.Len(), len(list))
		}
		out = reflect.New(t).Elem()
	} else {
		out = reflect.MakeSlice(t, len(list), len(list))
	}
	for i, item := range list {
		v, err := s.elementValue(ctx, item, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

// appendItems feeds the Items block of el through the list capability of
// the object ptr points to.
func (s *session) appendItems(ctx context.Context, el doctree.Element, ptr reflect.Value) error {
	block, ok, err := el.Element(ItemsElement)
	if err != nil || !ok {
		return err
	}
	methods := catalog.ListMethods(ptr.Elem().Type())
	if len(methods) != 1 {
		return loaderr.At(block, loaderr.ErrUnsupportedCollection, "%s has %d list capabilities, want exactly one", ptr.Elem().Type(), len(methods))
	}
	method := ptr.MethodByName(methods[0].Name)
	param := method.Type().In(0)

	list, err := itemElements(block)
	if err != nil {
		return err
	}
	for _, item := range list {
		v, err := s.elementValue(ctx, item, param)
		if err != nil {
			return err
		}
		out := method.Call([]reflect.Value{v})
		if len(out) == 1 && !out[0].IsNil() {
			return loaderr.Wrap(item, loaderr.ErrIncompatibleValue, out[0].Interface().(error), "%s rejected item", methods[0].Name)
		}
	}
	return nil
}

// fits reports whether class c can stand in for want.
func fits(c, want reflect.Type) bool {
	return reflect.PointerTo(c).AssignableTo(want) || c.AssignableTo(want)
}

// fit returns ptr or the value it points to, whichever is assignable to want.
func fit(ptr reflect.Value, want reflect.Type) (reflect.Value, bool) {
	if ptr.Type().AssignableTo(want) {
		return ptr, true
	}
	if ptr.Elem().Type().AssignableTo(want) {
		return ptr.Elem(), true
	}
	return reflect.Value{}, false
}

// coerce adapts an identity argument to a constructor parameter, allowing
// named types with the same underlying kind.
func coerce(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t) && v.Kind() == t.Kind():
		return v.Convert(t), nil
	}
	return reflect.Value{}, loaderr.New(loaderr.ErrIncompatibleValue, "cannot pass %s as %s", v.Type(), t)
}
