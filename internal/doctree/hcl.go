package doctree

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// parseHCL maps native HCL syntax onto the tree. Blocks become elements
// named by block type, with the first label exposed as a "Key" attribute.
// Attribute expressions are evaluated without variables or functions, so
// only literal values are accepted.
func parseHCL(doc *Document, src []byte) error {
	file, diags := hclsyntax.ParseConfig(src, doc.name, hcl.InitialPos)
	if diags.HasErrors() {
		return loaderr.Wrap(nil, loaderr.ErrFormat, diags, "malformed HCL")
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return loaderr.New(loaderr.ErrFormat, "unexpected HCL body type %T", file.Body)
	}
	root := doc.addElement(noParent, RootName, body.SrcRange.Start.Line)
	return hclBody(doc, root, body)
}

func hclBody(doc *Document, idx int32, body *hclsyntax.Body) error {
	// Attributes are held in a map; restore source order.
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	for _, a := range attrs {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return loaderr.Wrap(nil, loaderr.ErrFormat, diags, "line %d: cannot evaluate %q", a.SrcRange.Start.Line, a.Name)
		}
		if err := hclValue(doc, idx, a.Name, a.SrcRange.Start.Line, val); err != nil {
			return err
		}
	}

	for _, b := range body.Blocks {
		line := b.TypeRange.Start.Line
		if len(b.Labels) > 1 {
			return loaderr.New(loaderr.ErrFormat, "line %d: block %q has more than one label", line, b.Type)
		}
		child := doc.addElement(idx, b.Type, line)
		if len(b.Labels) == 1 {
			doc.addAttribute(child, "Key", b.Labels[0], line)
		}
		if err := hclBody(doc, child, b.Body); err != nil {
			return err
		}
	}
	doc.promoteValue(idx)
	return nil
}

func hclValue(doc *Document, owner int32, name string, line int, val cty.Value) error {
	ty := val.Type()
	switch {
	case val.IsNull():
		doc.addAttribute(owner, name, "", line)
	case ty.IsPrimitiveType():
		s, err := ctyString(val)
		if err != nil {
			return loaderr.Wrap(nil, loaderr.ErrFormat, err, "line %d: %q", line, name)
		}
		doc.addAttribute(owner, name, s, line)
	case ty.IsObjectType() || ty.IsMapType():
		return hclObject(doc, doc.addElement(owner, name, line), line, val)
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if err := hclEntry(doc, owner, name, line, elem); err != nil {
				return err
			}
		}
	default:
		return loaderr.New(loaderr.ErrFormat, "line %d: unsupported value of type %s for %q", line, ty.FriendlyName(), name)
	}
	return nil
}

func hclObject(doc *Document, idx int32, line int, val cty.Value) error {
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if err := hclValue(doc, idx, k.AsString(), line, v); err != nil {
			return err
		}
	}
	doc.promoteValue(idx)
	return nil
}

// hclEntry adds one collection entry as a sibling element named after the member.
func hclEntry(doc *Document, owner int32, name string, line int, val cty.Value) error {
	idx := doc.addElement(owner, name, line)
	ty := val.Type()
	switch {
	case val.IsNull():
		return nil
	case ty.IsPrimitiveType():
		s, err := ctyString(val)
		if err != nil {
			return loaderr.Wrap(nil, loaderr.ErrFormat, err, "line %d: %q", line, name)
		}
		doc.setValue(idx, s)
		return nil
	case ty.IsObjectType() || ty.IsMapType():
		return hclObject(doc, idx, line, val)
	default:
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if err := hclEntry(doc, idx, "Item", line, elem); err != nil {
				return err
			}
		}
		return nil
	}
}

func ctyString(val cty.Value) (string, error) {
	s, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}
