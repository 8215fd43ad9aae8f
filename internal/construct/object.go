package construct

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loadctx"
	"github.com/specialistvlad/definer/internal/loaderr"
	"github.com/specialistvlad/definer/internal/value"
)

// Element names of the constructor and collection shapes.
const (
	ArgumentElement = "Argument"
	ItemsElement    = "Items"
	ItemElement     = "Item"
)

var objectType = reflect.TypeFor[identity.Object]()

// session is the state of one load: the load context and a resolver that
// knows the load's registries.
type session struct {
	b   *Builder
	lc  *loadctx.Context
	res *value.Resolver
}

// object builds the element as an instance of a class named by classAttr
// and returns it fitted to want.
func (s *session) object(ctx context.Context, el doctree.Element, want reflect.Type, classAttr string) (reflect.Value, error) {
	typ, err := s.class(el, want, classAttr)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr, err := s.instance(ctx, el, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	out, ok := fit(ptr, want)
	if !ok {
		return reflect.Value{}, loaderr.At(el, loaderr.ErrIncompatibleClass, "%s is not assignable to %s", typ, want)
	}
	return out, nil
}

// class resolves the concrete type of el. Top-level objects must name a
// class; nested values default to the declared type.
func (s *session) class(el doctree.Element, want reflect.Type, classAttr string) (reflect.Type, error) {
	raw := strings.TrimSpace(el.AttributeValue(classAttr))
	if raw == "" && classAttr == loadctx.TypeAttr {
		if want.Kind() == reflect.Interface {
			return nil, loaderr.At(el, loaderr.ErrMissingClass, "%s is an interface, a %s attribute is required", want, loadctx.TypeAttr)
		}
		if want.Kind() == reflect.Pointer {
			return want.Elem(), nil
		}
		return want, nil
	}

	name, err := s.lc.ResolveClass(raw)
	if err != nil {
		return nil, loaderr.Locate(el, err)
	}
	typ, ok := s.b.catalog.Lookup(name)
	if !ok {
		msg := fmt.Sprintf("unknown class %q", name)
		if hint := s.b.catalog.Suggest(name); len(hint) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", hint[0])
		}
		return nil, loaderr.At(el, loaderr.ErrIncompatibleClass, "%s", msg)
	}
	if !fits(typ, want) {
		return nil, loaderr.At(el, loaderr.ErrIncompatibleClass, "class %s is not assignable to %s", name, want)
	}
	return typ, nil
}

// instance constructs and populates one object of class typ and returns a
// pointer to it.
func (s *session) instance(ctx context.Context, el doctree.Element, typ reflect.Type) (reflect.Value, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building object.", "class", catalog.FullName(typ), "path", el.Path())

	args, err := s.identityArgs(el, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	explicit, err := constructorArgs(el)
	if err != nil {
		return reflect.Value{}, err
	}

	ptr, err := s.construct(ctx, el, typ, args, explicit)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := s.populate(ctx, el, ptr); err != nil {
		return reflect.Value{}, err
	}
	return ptr, nil
}

func carriesIdentity(typ reflect.Type) bool {
	return typ.Implements(objectType) || reflect.PointerTo(typ).Implements(objectType)
}

// identityArgs returns (key, id) for identity-bearing classes.
func (s *session) identityArgs(el doctree.Element, typ reflect.Type) ([]reflect.Value, error) {
	if !carriesIdentity(typ) {
		return nil, nil
	}
	rec, err := keyRecord(el)
	if err != nil {
		return nil, err
	}
	return []reflect.Value{reflect.ValueOf(rec.Key), reflect.ValueOf(rec.ID)}, nil
}

func keyRecord(el doctree.Element) (identity.KeyRecord, error) {
	key := strings.TrimSpace(el.AttributeValue(loadctx.KeyAttr))
	if key == "" {
		return identity.KeyRecord{}, loaderr.At(el, loaderr.ErrMissingKey, "object has no %s", loadctx.KeyAttr)
	}
	raw, ok := el.Attribute(loadctx.IDAttr)
	if !ok || strings.TrimSpace(raw.Value()) == "" {
		return identity.KeyRecord{}, loaderr.At(el, loaderr.ErrInvalidID, "object %q has no %s", key, loadctx.IDAttr)
	}
	id, err := identity.ParseGlobalID(strings.TrimSpace(raw.Value()))
	if err != nil {
		return identity.KeyRecord{}, loaderr.Wrap(raw, loaderr.ErrInvalidID, err, "object %q", key)
	}
	return identity.KeyRecord{Key: key, ID: id}, nil
}

func constructorArgs(el doctree.Element) ([]doctree.Element, error) {
	ctor, ok, err := el.Element(loadctx.CtorElement)
	if err != nil || !ok {
		return nil, err
	}
	return ctor.Elements(ArgumentElement), nil
}

// construct selects the constructor whose arity matches and calls it. With
// no registered constructors and no arguments the zero value is used.
func (s *session) construct(ctx context.Context, el doctree.Element, typ reflect.Type, idArgs []reflect.Value, explicit []doctree.Element) (reflect.Value, error) {
	ctors := s.b.catalog.Constructors(typ)
	n := len(idArgs) + len(explicit)
	if len(ctors) == 0 && n == 0 {
		return reflect.New(typ), nil
	}

	var match []catalog.Constructor
	for _, c := range ctors {
		if c.Arity() == n {
			match = append(match, c)
		}
	}
	switch len(match) {
	case 0:
		return reflect.Value{}, loaderr.At(el, loaderr.ErrConstructorNotFound, "%s has no constructor taking %d arguments", catalog.FullName(typ), n)
	case 1:
	default:
		return reflect.Value{}, loaderr.At(el, loaderr.ErrAmbiguousConstructor, "%s has %d constructors taking %d arguments", catalog.FullName(typ), len(match), n)
	}
	ctor := match[0]

	args := make([]reflect.Value, 0, n)
	for i, v := range idArgs {
		arg, err := coerce(v, ctor.Param(i))
		if err != nil {
			return reflect.Value{}, loaderr.Wrap(el, loaderr.ErrIncompatibleValue, err, "identity argument %d of %s", i, ctor)
		}
		args = append(args, arg)
	}
	for i, argEl := range explicit {
		arg, err := s.elementValue(ctx, argEl, ctor.Param(len(idArgs)+i))
		if err != nil {
			return reflect.Value{}, err
		}
		args = append(args, arg)
	}

	ptr, err := ctor.Call(args)
	if err != nil {
		return reflect.Value{}, loaderr.Wrap(el, loaderr.ErrIncompatibleValue, err, "constructor %s failed", ctor)
	}
	return ptr, nil
}

// populate applies defaults, then attributes, then child elements.
func (s *session) populate(ctx context.Context, el doctree.Element, ptr reflect.Value) error {
	obj := ptr.Elem()
	list := len(catalog.ListMethods(obj.Type())) > 0

	for _, t := range catalog.Chain(obj.Type()) {
		for _, d := range s.lc.GetDefaultValues(catalog.FullName(t)) {
			var err error
			if d.Element.IsZero() {
				err = s.setText(ctx, obj, d.Attribute)
			} else {
				err = s.setElement(ctx, obj, d.Element)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, a := range el.Attributes() {
		if loadctx.Reserved(a.Name()) {
			continue
		}
		if err := s.setText(ctx, obj, a); err != nil {
			return err
		}
	}

	for _, child := range el.Elements() {
		switch {
		case loadctx.Reserved(child.Name()):
			continue
		case child.Name() == ItemsElement:
			if list {
				continue
			}
			return loaderr.At(child, loaderr.ErrUnsupportedCollection, "%s has no list capability", obj.Type())
		}
		if err := s.setElement(ctx, obj, child); err != nil {
			return err
		}
	}

	if list {
		return s.appendItems(ctx, el, ptr)
	}
	return nil
}

func (s *session) member(obj reflect.Value, loc loaderr.Locator, name string) (catalog.Member, error) {
	m, ok := s.b.lookup.FindMember(obj.Type(), name)
	if !ok {
		return catalog.Member{}, loaderr.At(loc, loaderr.ErrUnknownMember, "%s has no member %q", obj.Type(), name)
	}
	return m, nil
}

func (s *session) setText(ctx context.Context, obj reflect.Value, a doctree.Attribute) error {
	m, err := s.member(obj, a, a.Name())
	if err != nil {
		return err
	}
	v, err := s.res.Resolve(a.Value(), m.Type)
	if err != nil {
		return loaderr.Locate(a, err)
	}
	m.Field(obj).Set(v)
	ctxlog.FromContext(ctx).Debug("Set member.", "member", m.Name, "path", a.Path())
	return nil
}

func (s *session) setElement(ctx context.Context, obj reflect.Value, el doctree.Element) error {
	m, err := s.member(obj, el, el.Name())
	if err != nil {
		return err
	}
	v, err := s.elementValue(ctx, el, m.Type)
	if err != nil {
		return err
	}
	m.Field(obj).Set(v)
	ctxlog.FromContext(ctx).Debug("Set member.", "member", m.Name, "path", el.Path())
	return nil
}
