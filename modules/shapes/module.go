// Package shapes is a sample type module: a handful of drawable classes that
// documents can define, used by the CLI and the end-to-end tests.
package shapes

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/registry"
	"github.com/specialistvlad/definer/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the shape classes, their aliases, the Style flags and the
// hex color converter.
func (m *Module) Register(r *registry.Registry) {
	r.Catalog.MustRegister(reflect.TypeFor[Widget](), NewWidget)
	r.Catalog.MustRegister(reflect.TypeFor[Palette](), NewPalette)
	r.Catalog.MustRegister(reflect.TypeFor[Color]())
	r.Catalog.MustRegister(reflect.TypeFor[Node]())

	for _, t := range []reflect.Type{reflect.TypeFor[Widget](), reflect.TypeFor[Palette](), reflect.TypeFor[Color](), reflect.TypeFor[Node]()} {
		if err := r.Aliases.Register(t.Name(), catalog.FullName(t)); err != nil {
			panic(fmt.Errorf("shapes: %w", err))
		}
	}
	if err := value.RegisterFlags(r.Enums, Bold, Italic, Underline); err != nil {
		panic(fmt.Errorf("shapes: %w", err))
	}
	if err := value.RegisterConverter(r.Converters, ParseHexColor); err != nil {
		panic(fmt.Errorf("shapes: %w", err))
	}
}
