package registry

import (
	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/loadctx"
	"github.com/specialistvlad/definer/internal/value"
)

// Module is the interface that all type modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the class catalog and the process-wide tables for a single
// application instance.
type Registry struct {
	Catalog    *catalog.Catalog
	Aliases    *loadctx.AliasTable
	Enums      *value.EnumTable
	Converters *value.ConverterTable
}

// New creates a Registry with fresh, empty tables.
func New() *Registry {
	return &Registry{
		Catalog:    catalog.New(),
		Aliases:    loadctx.NewAliasTable(),
		Enums:      value.NewEnumTable(),
		Converters: value.NewConverterTable(),
	}
}

// Install registers every module into r.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Resolver returns a value resolver over the registry's tables.
func (r *Registry) Resolver(opts ...value.Option) *value.Resolver {
	base := []value.Option{value.WithConverters(r.Converters), value.WithEnums(r.Enums)}
	return value.New(append(base, opts...)...)
}
