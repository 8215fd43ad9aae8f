package construct

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/definer/internal/catalog"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loadctx"
	"github.com/specialistvlad/definer/internal/value"
)

const (
	id1 = "6f1c2b0e-8a43-4c55-9d0e-1b7a3c9e4f01"
	id2 = "6f1c2b0e-8a43-4c55-9d0e-1b7a3c9e4f02"
	id3 = "6f1c2b0e-8a43-4c55-9d0e-1b7a3c9e4f03"
)

type Style uint8

const (
	Bold Style = 1 << iota
	Italic
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	}
	return "Style(" + strconv.Itoa(int(s)) + ")"
}

type Color struct {
	R, G, B uint8
	Name    string
}

type Node struct {
	Visible bool
	Label   string
	Size    int
}

type Tags struct {
	items []string
}

func (t *Tags) Add(s string) { t.items = append(t.items, s) }

type Shape interface {
	Area() float64
}

type Circle struct{ Radius float64 }

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

type Square struct{ Side float64 }

func (s Square) Area() float64 { return s.Side * s.Side }

type Widget struct {
	Node
	key   string
	id    identity.GlobalID
	local identity.LocalID

	Color   *Color
	Tags    Tags
	Points  []int
	Corners [2]int
	Shapes  []Shape
	Style   Style
	Parent  identity.Reference
	Shape   Shape
	Ratio   *float64
}

func NewWidget(key string, id identity.GlobalID) *Widget {
	return &Widget{key: key, id: id}
}

func (w *Widget) Key() string                    { return w.key }
func (w *Widget) GlobalID() identity.GlobalID    { return w.id }
func (w *Widget) SetLocalID(id identity.LocalID) { w.local = id }

type Palette struct {
	key  string
	id   identity.GlobalID
	Main identity.Reference
}

func NewPalette(key string, id identity.GlobalID) *Palette { return &Palette{key: key, id: id} }

func (p *Palette) Key() string                 { return p.key }
func (p *Palette) GlobalID() identity.GlobalID { return p.id }

type Gear struct {
	Teeth int
	Ratio float64
	Name  string
	Trim  Color
}

func NewGear(teeth int) *Gear { return &Gear{Teeth: teeth} }

func NewGearFull(teeth int, ratio float64, name string) (*Gear, error) {
	if teeth <= 0 {
		return nil, errors.New("a gear needs teeth")
	}
	return &Gear{Teeth: teeth, Ratio: ratio, Name: name}, nil
}

type Lever struct{ Length int }

func NewLever(n int) Lever       { return Lever{Length: n} }
func NewLeverNamed(string) Lever { return Lever{} }

type Multi struct{}

func (*Multi) Add(string)    {}
func (*Multi) Append(string) {}

type Holder struct {
	Multi Multi
	Color Color
	Tags  Tags
}

func newBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()

	cat := catalog.New()
	require.NoError(t, catalog.Add[Widget](cat, NewWidget))
	require.NoError(t, catalog.Add[Palette](cat, NewPalette))
	require.NoError(t, catalog.Add[Color](cat))
	require.NoError(t, catalog.Add[Gear](cat, NewGear, NewGearFull))
	require.NoError(t, catalog.Add[Lever](cat, NewLever, NewLeverNamed))
	require.NoError(t, catalog.Add[Circle](cat))
	require.NoError(t, catalog.Add[Square](cat))
	require.NoError(t, catalog.Add[Holder](cat))

	aliases := loadctx.NewAliasTable()
	for _, name := range []string{"Widget", "Palette", "Color", "Gear", "Lever", "Circle", "Square", "Holder", "Node"} {
		require.NoError(t, aliases.Register(name, "github.com/specialistvlad/definer/internal/construct."+name))
	}

	enums := value.NewEnumTable()
	require.NoError(t, value.RegisterFlags(enums, Bold, Italic))
	res := value.New(value.WithConverters(value.NewConverterTable()), value.WithEnums(enums))

	return New(cat, append([]Option{WithAliases(aliases), WithResolver(res)}, opts...)...)
}
