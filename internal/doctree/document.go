package doctree

import (
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/definer/internal/loaderr"
)

const noParent int32 = -1

type node struct {
	name     string
	value    string
	line     int
	parent   int32
	attrs    []int32
	children []int32
}

type attr struct {
	name  string
	value string
	line  int
	owner int32
}

// Document is a parsed definition document. It owns every Element and
// Attribute reachable from its root.
type Document struct {
	name   string
	format Format
	nodes  []node
	attrs  []attr
}

// Name returns the source name the document was parsed from (usually a path).
func (d *Document) Name() string { return d.name }

// Format returns the source format of the document.
func (d *Document) Format() Format { return d.format }

// Root returns the document's root element.
func (d *Document) Root() Element {
	if d == nil || len(d.nodes) == 0 {
		return Element{}
	}
	return Element{doc: d, idx: 0}
}

// Len returns the number of elements in the document, root included.
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) addElement(parent int32, name string, line int) int32 {
	idx := int32(len(d.nodes))
	d.nodes = append(d.nodes, node{name: name, line: line, parent: parent})
	if parent != noParent {
		d.nodes[parent].children = append(d.nodes[parent].children, idx)
	}
	return idx
}

func (d *Document) addAttribute(owner int32, name, value string, line int) {
	idx := int32(len(d.attrs))
	d.attrs = append(d.attrs, attr{name: name, value: value, line: line, owner: owner})
	d.nodes[owner].attrs = append(d.nodes[owner].attrs, idx)
}

func (d *Document) setValue(idx int32, value string) {
	d.nodes[idx].value = value
}

// promoteValue applies the tagged-data rule that an object-shaped member
// takes its own value from a primitive member named "Value".
func (d *Document) promoteValue(idx int32) {
	for _, a := range d.nodes[idx].attrs {
		if d.attrs[a].name == "Value" {
			d.nodes[idx].value = d.attrs[a].value
			return
		}
	}
}

// Element is a handle to one element of a Document. The zero Element is
// not part of any document; IsZero reports that.
type Element struct {
	doc *Document
	idx int32
}

// IsZero reports whether e refers to no element.
func (e Element) IsZero() bool { return e.doc == nil }

func (e Element) n() *node { return &e.doc.nodes[e.idx] }

// Document returns the document that owns e.
func (e Element) Document() *Document { return e.doc }

// Name returns the element name.
func (e Element) Name() string {
	if e.IsZero() {
		return ""
	}
	return e.n().name
}

// Value returns the element's own text content.
func (e Element) Value() string {
	if e.IsZero() {
		return ""
	}
	return e.n().value
}

// Line returns the 1-based source line of the element, or 0 if unknown.
func (e Element) Line() int {
	if e.IsZero() {
		return 0
	}
	return e.n().line
}

// Parent returns the enclosing element. The root has none.
func (e Element) Parent() (Element, bool) {
	if e.IsZero() || e.n().parent == noParent {
		return Element{}, false
	}
	return Element{doc: e.doc, idx: e.n().parent}, true
}

// Path returns a slash-separated location of the element for diagnostics,
// e.g. "Definitions/Widget[1]/Color". Sibling positions are only shown when
// more than one sibling shares the name.
func (e Element) Path() string {
	if e.IsZero() {
		return ""
	}
	var parts []string
	for cur := e; ; {
		parts = append(parts, cur.segment())
		p, ok := cur.Parent()
		if !ok {
			break
		}
		cur = p
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

func (e Element) segment() string {
	p, ok := e.Parent()
	if !ok {
		return e.Name()
	}
	pos, count := 0, 0
	for _, c := range p.n().children {
		if e.doc.nodes[c].name != e.Name() {
			continue
		}
		if c == e.idx {
			pos = count
		}
		count++
	}
	if count < 2 {
		return e.Name()
	}
	return e.Name() + "[" + strconv.Itoa(pos) + "]"
}

// Attribute returns the first attribute with the given name.
func (e Element) Attribute(name string) (Attribute, bool) {
	if e.IsZero() {
		return Attribute{}, false
	}
	for _, a := range e.n().attrs {
		if e.doc.attrs[a].name == name {
			return Attribute{doc: e.doc, idx: a}, true
		}
	}
	return Attribute{}, false
}

// AttributeValue returns the value of the named attribute, or "" when absent.
func (e Element) AttributeValue(name string) string {
	a, _ := e.Attribute(name)
	return a.Value()
}

// Attributes returns the element's attributes in source order. With names
// given, only attributes carrying one of those names are returned.
func (e Element) Attributes(names ...string) []Attribute {
	if e.IsZero() {
		return nil
	}
	out := make([]Attribute, 0, len(e.n().attrs))
	for _, a := range e.n().attrs {
		if len(names) > 0 && !slices.Contains(names, e.doc.attrs[a].name) {
			continue
		}
		out = append(out, Attribute{doc: e.doc, idx: a})
	}
	return out
}

// Element returns the single child with the given name. It reports false
// when there is none and fails when there is more than one.
func (e Element) Element(name string) (Element, bool, error) {
	var found Element
	for _, c := range e.Elements(name) {
		if !found.IsZero() {
			return Element{}, false, loaderr.At(c, loaderr.ErrAmbiguousElement, "expected at most one %q in %q", name, e.Name())
		}
		found = c
	}
	return found, !found.IsZero(), nil
}

// Elements returns the element's children in source order. With names
// given, only children carrying one of those names are returned.
func (e Element) Elements(names ...string) []Element {
	if e.IsZero() {
		return nil
	}
	out := make([]Element, 0, len(e.n().children))
	for _, c := range e.n().children {
		if len(names) > 0 && !slices.Contains(names, e.doc.nodes[c].name) {
			continue
		}
		out = append(out, Element{doc: e.doc, idx: c})
	}
	return out
}

// HasChildren reports whether the element has child elements.
func (e Element) HasChildren() bool {
	return !e.IsZero() && len(e.n().children) > 0
}

// HasContent reports whether the element has child elements or attributes.
func (e Element) HasContent() bool {
	return !e.IsZero() && (len(e.n().children) > 0 || len(e.n().attrs) > 0)
}

// Attribute is a handle to a name/value pair owned by an Element.
type Attribute struct {
	doc *Document
	idx int32
}

// IsZero reports whether a refers to no attribute.
func (a Attribute) IsZero() bool { return a.doc == nil }

// Name returns the attribute name.
func (a Attribute) Name() string {
	if a.IsZero() {
		return ""
	}
	return a.doc.attrs[a.idx].name
}

// Value returns the attribute value.
func (a Attribute) Value() string {
	if a.IsZero() {
		return ""
	}
	return a.doc.attrs[a.idx].value
}

// Line returns the 1-based source line of the attribute, or 0 if unknown.
func (a Attribute) Line() int {
	if a.IsZero() {
		return 0
	}
	return a.doc.attrs[a.idx].line
}

// Owner returns the element carrying the attribute.
func (a Attribute) Owner() Element {
	if a.IsZero() {
		return Element{}
	}
	return Element{doc: a.doc, idx: a.doc.attrs[a.idx].owner}
}

// Path returns the owner's path followed by "@name".
func (a Attribute) Path() string {
	if a.IsZero() {
		return ""
	}
	return a.Owner().Path() + "@" + a.Name()
}
