package construct

import (
	"context"
	"errors"

	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loaderr"
	"github.com/specialistvlad/definer/internal/value"
)

// ExtractKeys reads the Key and ID of every root-level element named
// elementName without constructing anything.
func ExtractKeys(doc *doctree.Document, elementName string) ([]identity.KeyRecord, error) {
	var out []identity.KeyRecord
	for _, el := range doc.Root().Elements(elementName) {
		rec, err := ElementKey(el)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ElementKey reads the Key and ID attributes of a single element.
func ElementKey(el doctree.Element) (identity.KeyRecord, error) {
	return keyRecord(el)
}

// Binding ties a registry to the document elements that fill it.
type Binding interface {
	// Registry returns the bound registry as a key table.
	Registry() identity.KeyResolver
	// Element returns the root-level element name the registry loads from.
	Element() string

	loadKeys(records []identity.KeyRecord) error
	loadObjects(ctx context.Context, s *session, doc *doctree.Document) error
	reset()
}

type binding[T identity.Object] struct {
	reg     *identity.Registry[T]
	element string
}

// Bind binds reg to the root-level elements named elementName.
func Bind[T identity.Object](reg *identity.Registry[T], elementName string) Binding {
	return &binding[T]{reg: reg, element: elementName}
}

func (b *binding[T]) Registry() identity.KeyResolver { return b.reg }
func (b *binding[T]) Element() string                { return b.element }
func (b *binding[T]) reset()                         { b.reg.Clear() }

func (b *binding[T]) loadKeys(records []identity.KeyRecord) error {
	return b.reg.LoadKeys(records)
}

func (b *binding[T]) loadObjects(ctx context.Context, s *session, doc *doctree.Document) error {
	var objs []T
	for _, el := range doc.Root().Elements(b.element) {
		obj, err := build[T](ctx, s, el)
		if err != nil {
			return err
		}
		objs = append(objs, obj)
	}
	return b.reg.LoadObjects(objs)
}

// LoadRegistries fills every bound registry from doc in two phases: first
// the key tables of all bindings, then the objects. Objects may therefore
// reference any bound registry by key, including objects further down the
// document. On failure every registry whose keys this call loaded is
// cleared again.
func LoadRegistries(ctx context.Context, b *Builder, doc *doctree.Document, bindings ...Binding) (err error) {
	logger := ctxlog.FromContext(ctx).With("document", doc.Name())
	var touched []Binding
	defer func() {
		if err != nil {
			for _, bd := range touched {
				bd.reset()
			}
		}
	}()

	lc, err := b.Context(doc)
	if err != nil {
		return err
	}

	dir, err := identity.NewDirectory()
	if err != nil {
		return err
	}
	for _, bd := range bindings {
		records, err := ExtractKeys(doc, bd.Element())
		if err != nil {
			return err
		}
		if err := bd.loadKeys(records); err != nil {
			return err
		}
		touched = append(touched, bd)
		if err := dir.Add(bd.Registry()); err != nil {
			return err
		}
		logger.Debug("Loaded keys.", "registry", bd.Registry().Name(), "count", len(records))
	}

	var refs value.References = dir
	if b.refs != nil {
		refs = layered{dir, b.refs}
	}
	s := b.session(lc, refs)
	for _, bd := range bindings {
		if err := bd.loadObjects(ctx, s, doc); err != nil {
			return err
		}
		logger.Debug("Loaded objects.", "registry", bd.Registry().Name())
	}
	return nil
}

// layered tries each directory in turn and moves on only when a reference
// cannot be resolved.
type layered []value.References

func (l layered) Resolve(text string) (identity.Reference, error) {
	var err error
	for _, refs := range l {
		var ref identity.Reference
		ref, err = refs.Resolve(text)
		if err == nil || !errors.Is(err, loaderr.ErrUnresolvedReference) {
			return ref, err
		}
	}
	return identity.Reference{}, err
}
