package construct

import (
	"context"
	"reflect"

	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loadctx"
	"github.com/specialistvlad/definer/internal/value"
)

// Builder constructs objects from document elements. It holds no per-load
// state and can be shared.
type Builder struct {
	catalog  *catalog.Catalog
	lookup   catalog.MemberLookup
	resolver *value.Resolver
	aliases  *loadctx.AliasTable
	refs     value.References
	fallback string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLookup replaces the member lookup policy.
func WithLookup(l catalog.MemberLookup) Option { return func(b *Builder) { b.lookup = l } }

// WithResolver replaces the value resolver.
func WithResolver(r *value.Resolver) Option { return func(b *Builder) { b.resolver = r } }

// WithAliases sets the process-wide alias table consulted after a
// document's own aliases.
func WithAliases(t *loadctx.AliasTable) Option { return func(b *Builder) { b.aliases = t } }

// WithDirectory makes references into already-loaded registries resolvable.
func WithDirectory(d *identity.Directory) Option { return func(b *Builder) { b.refs = d } }

// WithFallbackClass sets the class used for objects that name none.
func WithFallbackClass(class string) Option { return func(b *Builder) { b.fallback = class } }

// New returns a Builder over cat.
func New(cat *catalog.Catalog, opts ...Option) *Builder {
	b := &Builder{
		catalog: cat,
		lookup:  catalog.DefaultLookup,
		aliases: loadctx.DefaultAliases,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolver == nil {
		b.resolver = value.New()
	}
	return b
}

// Context parses the aliases and defaults of doc into a fresh load context.
func (b *Builder) Context(doc *doctree.Document) (*loadctx.Context, error) {
	lc := loadctx.New(b.aliases, loadctx.WithFallback(b.fallback))
	if err := lc.Parse(doc.Root()); err != nil {
		return nil, err
	}
	return lc, nil
}

// Construct builds one object from el and returns it as a value of type t.
func (b *Builder) Construct(ctx context.Context, lc *loadctx.Context, el doctree.Element, t reflect.Type) (reflect.Value, error) {
	return b.session(lc, b.refs).object(ctx, el, t, loadctx.ClassAttr)
}

func (b *Builder) session(lc *loadctx.Context, refs value.References) *session {
	res := b.resolver
	if refs != nil {
		res = res.With(value.WithReferences(refs))
	}
	return &session{b: b, lc: lc, res: res}
}

// Load builds one T from every root-level element named elementName, in
// document order. On error no objects are returned.
func Load[T any](ctx context.Context, b *Builder, doc *doctree.Document, elementName string) ([]T, error) {
	lc, err := b.Context(doc)
	if err != nil {
		return nil, err
	}
	ctx, logger := ctxlog.With(ctx, "document", doc.Name(), "element", elementName)

	s := b.session(lc, b.refs)
	var out []T
	for _, el := range doc.Root().Elements(elementName) {
		obj, err := build[T](ctx, s, el)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	logger.Debug("Loaded objects.", "count", len(out))
	return out, nil
}

// LoadOne builds a single T from el using an existing load context.
func LoadOne[T any](ctx context.Context, b *Builder, lc *loadctx.Context, el doctree.Element) (T, error) {
	return build[T](ctx, b.session(lc, b.refs), el)
}

func build[T any](ctx context.Context, s *session, el doctree.Element) (T, error) {
	var zero T
	v, err := s.object(ctx, el, reflect.TypeFor[T](), loadctx.ClassAttr)
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}
