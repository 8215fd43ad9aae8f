package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/definer/internal/construct"
	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/keystore"
	"github.com/specialistvlad/definer/internal/loadctx"
)

// Construct builds every root-level element with the configured name from
// every loaded document, in two phases. First the key table of the
// registry named after the element is loaded from the documents and, when
// a key store is configured, from the stored table. Then the objects are
// built and every identified one is registered. References of the form
// "Element:key" resolve against that registry; stored tables of other
// registries are resolvable too.
func (a *App) Construct(ctx context.Context) ([]any, error) {
	objs, err := a.construct(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s objects: %w", a.config.Element, err)
	}
	return objs, nil
}

func (a *App) construct(ctx context.Context) ([]any, error) {
	logger := ctxlog.FromContext(ctx)
	element := a.config.Element

	records, err := a.documentKeys()
	if err != nil {
		return nil, err
	}
	stored, err := a.storedTables(ctx)
	if err != nil {
		return nil, err
	}

	reg := identity.New[identity.Object](element)
	tables := []identity.KeyResolver{reg}
	for name, recs := range stored {
		if name == element {
			records = append(recs, records...)
			continue
		}
		t := identity.New[identity.Object](name)
		if err := t.LoadKeys(recs); err != nil {
			return nil, fmt.Errorf("stored key table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := reg.LoadKeys(records); err != nil {
		return nil, err
	}
	dir, err := identity.NewDirectory(tables...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Keys loaded.", "registry", element, "keys", len(reg.Keys()), "tables", len(tables))

	b := construct.New(a.registry.Catalog,
		construct.WithAliases(a.registry.Aliases),
		construct.WithResolver(a.resolver),
		construct.WithDirectory(dir),
	)

	var out []any
	var identified []identity.Object
	for _, doc := range a.docs {
		objs, err := construct.Load[any](ctx, b, doc, element)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Name(), err)
		}
		for _, obj := range objs {
			if o, ok := obj.(identity.Object); ok {
				identified = append(identified, o)
			}
		}
		out = append(out, objs...)
	}
	if err := reg.LoadObjects(identified); err != nil {
		return nil, err
	}

	a.objects = reg
	logger.Debug("Objects registered.", "registry", element, "count", reg.Len())
	return out, nil
}

// documentKeys collects the Key/ID pairs of the configured element across
// all documents. Elements without a Key are not identified and are skipped.
func (a *App) documentKeys() ([]identity.KeyRecord, error) {
	var records []identity.KeyRecord
	for _, doc := range a.docs {
		for _, el := range doc.Root().Elements(a.config.Element) {
			if el.AttributeValue(loadctx.KeyAttr) == "" {
				continue
			}
			rec, err := construct.ElementKey(el)
			if err != nil {
				return nil, fmt.Errorf("failed to extract keys from %s: %w", doc.Name(), err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// storedTables reads every key table of the configured key store. Without
// a key store, or before the first save, there are none.
func (a *App) storedTables(ctx context.Context) (map[string][]identity.KeyRecord, error) {
	if a.config.KeyStorePath == "" {
		return nil, nil
	}
	store, err := keystore.Open(a.config.KeyStorePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	names, err := store.Registries(ctx)
	if err != nil {
		return nil, err
	}
	tables := make(map[string][]identity.KeyRecord, len(names))
	for _, name := range names {
		recs, err := store.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		tables[name] = recs
	}
	return tables, nil
}
