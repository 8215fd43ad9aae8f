package shapes

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/specialistvlad/definer/internal/identity"
)

// Style is a set of text style flags.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Underline
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	case Underline:
		return "Underline"
	}
	return fmt.Sprintf("Style(%d)", uint8(s))
}

// Color is an RGBA color. As a text value it is written "#rrggbb" or
// "#rrggbbaa".
type Color struct {
	R, G, B uint8
	A       uint8 `def:"Alpha"`
	Name    string
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to 255.
func ParseHexColor(text string, _ language.Tag) (Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(text), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", text)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", text, err)
	}
	c := Color{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

// Tags is an ordered list of labels.
type Tags struct {
	items []string
}

// Add appends a tag.
func (t *Tags) Add(tag string) { t.items = append(t.items, tag) }

// Values returns the tags in insertion order.
func (t Tags) Values() []string { return t.items }

// Node holds what every drawable has.
type Node struct {
	Label   string
	Visible bool
}

// Widget is a drawable element with identity.
type Widget struct {
	Node

	key   string
	id    identity.GlobalID
	local identity.LocalID

	Size    int
	Scale   float64
	Color   *Color
	Fill    Color
	Style   Style
	Tags    Tags
	Points  []int
	Palette identity.Reference
}

// NewWidget is the identity constructor of Widget.
func NewWidget(key string, id identity.GlobalID) *Widget {
	return &Widget{key: key, id: id, Scale: 1}
}

func (w *Widget) Key() string                    { return w.key }
func (w *Widget) GlobalID() identity.GlobalID    { return w.id }
func (w *Widget) LocalID() identity.LocalID      { return w.local }
func (w *Widget) SetLocalID(id identity.LocalID) { w.local = id }

// Palette is a named set of colors.
type Palette struct {
	key   string
	id    identity.GlobalID
	local identity.LocalID

	Colors []Color
}

// NewPalette is the identity constructor of Palette.
func NewPalette(key string, id identity.GlobalID) *Palette {
	return &Palette{key: key, id: id}
}

func (p *Palette) Key() string                    { return p.key }
func (p *Palette) GlobalID() identity.GlobalID    { return p.id }
func (p *Palette) LocalID() identity.LocalID      { return p.local }
func (p *Palette) SetLocalID(id identity.LocalID) { p.local = id }
