// Package catalog is the constructor's view of Go types: which types can be
// named from a document, how to construct them, what they embed, and how a
// document member name maps onto a struct field.
//
// A class name is the fully-qualified Go type name, for example
// "github.com/specialistvlad/definer/modules/shapes.Widget". Types must be
// registered before documents can name them.
package catalog
