package construct

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loaderr"
)

func parse(t *testing.T, src string, format doctree.Format) *doctree.Document {
	t.Helper()
	doc, err := doctree.ParseString(src, format)
	require.NoError(t, err)
	return doc
}

func TestLoad_WidgetWithNestedColor(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Widget Class="Widget" Key="w1" ID="`+id1+`" Size="5">
    <Color R="10" G="20" B="30" Name="teal"/>
  </Widget>
</Document>`, doctree.FormatXML)

	widgets, err := Load[*Widget](context.Background(), newBuilder(t), doc, "Widget")
	require.NoError(t, err)
	require.Len(t, widgets, 1)

	w := widgets[0]
	assert.Equal(t, 5, w.Size)
	assert.Equal(t, "w1", w.Key())
	assert.Equal(t, identity.MustParseGlobalID(id1), w.GlobalID())
	if diff := cmp.Diff(&Color{R: 10, G: 20, B: 30, Name: "teal"}, w.Color); diff != "" {
		t.Errorf("color mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_SameGraphFromEveryFormat(t *testing.T) {
	t.Parallel()

	sources := map[doctree.Format]string{
		doctree.FormatXML: `<Document>
  <Widget Class="Widget" Key="w1" ID="` + id1 + `" Size="5" Style="Bold|Italic">
    <Color R="1" G="2" B="3"/>
    <Tags><Items><Item>a</Item><Item>b</Item><Item>c</Item></Items></Tags>
    <Points><Items><Item>4</Item><Item>5</Item></Items></Points>
  </Widget>
</Document>`,
		doctree.FormatJSON: `{
  "Widget": {
    "Class": "Widget", "Key": "w1", "ID": "` + id1 + `", "Size": 5, "Style": "Bold|Italic",
    "Color": {"R": 1, "G": 2, "B": 3},
    "Tags": {"Items": {"Item": ["a", "b", "c"]}},
    "Points": {"Items": {"Item": [4, 5]}}
  }
}`,
		doctree.FormatYAML: `
Widget:
  Class: Widget
  Key: w1
  ID: ` + id1 + `
  Size: 5
  Style: Bold|Italic
  Color: {R: 1, G: 2, B: 3}
  Tags:
    Items:
      Item: [a, b, c]
  Points:
    Items:
      Item: [4, 5]
`,
		doctree.FormatHCL: `
Widget "w1" {
  Class = "Widget"
  ID    = "` + id1 + `"
  Size  = 5
  Style = "Bold|Italic"
  Color {
    R = 1
    G = 2
    B = 3
  }
  Tags {
    Items {
      Item = ["a", "b", "c"]
    }
  }
  Points {
    Items {
      Item = [4, 5]
    }
  }
}
`,
	}

	for format, src := range sources {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()
			widgets, err := Load[*Widget](context.Background(), newBuilder(t), parse(t, src, format), "Widget")
			require.NoError(t, err)
			require.Len(t, widgets, 1)

			w := widgets[0]
			assert.Equal(t, "w1", w.Key())
			assert.Equal(t, 5, w.Size)
			assert.Equal(t, Bold|Italic, w.Style)
			assert.Equal(t, &Color{R: 1, G: 2, B: 3}, w.Color)
			assert.Equal(t, []string{"a", "b", "c"}, w.Tags.items)
			assert.Equal(t, []int{4, 5}, w.Points)
		})
	}
}

func TestLoad_ConstructorSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args string
		want *Gear
		kind error
	}{
		{name: "one argument", args: `<Argument>12</Argument>`, want: &Gear{Teeth: 12}},
		{name: "three arguments", args: `<Argument>12</Argument><Argument>0.5</Argument><Argument>spur</Argument>`, want: &Gear{Teeth: 12, Ratio: 0.5, Name: "spur"}},
		{name: "two arguments", args: `<Argument>1</Argument><Argument>2</Argument>`, kind: loaderr.ErrConstructorNotFound},
		{name: "no arguments", args: ``, kind: loaderr.ErrConstructorNotFound},
		{name: "argument not parsable", args: `<Argument>many</Argument>`, kind: loaderr.ErrFormat},
		{name: "constructor fails", args: `<Argument>0</Argument><Argument>1</Argument><Argument>x</Argument>`, kind: loaderr.ErrIncompatibleValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := parse(t, `<Document><Gear Class="Gear"><Constructor>`+tt.args+`</Constructor></Gear></Document>`, doctree.FormatXML)
			gears, err := Load[*Gear](context.Background(), newBuilder(t), doc, "Gear")
			if tt.kind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.kind)
				assert.Nil(t, gears)
				return
			}
			require.NoError(t, err)
			require.Len(t, gears, 1)
			assert.Equal(t, tt.want, gears[0])
		})
	}
}

func TestLoad_ConstructorThenPopulate(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Gear Class="Gear" Name="big">
    <Constructor><Argument>40</Argument></Constructor>
    <Trim R="9"/>
  </Gear>
</Document>`, doctree.FormatXML)
	gears, err := Load[Gear](context.Background(), newBuilder(t), doc, "Gear")
	require.NoError(t, err)
	assert.Equal(t, []Gear{{Teeth: 40, Name: "big", Trim: Color{R: 9}}}, gears)
}

func TestLoad_AmbiguousConstructor(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document><Lever Class="Lever"><Constructor><Argument>3</Argument></Constructor></Lever></Document>`, doctree.FormatXML)
	_, err := Load[Lever](context.Background(), newBuilder(t), doc, "Lever")
	assert.ErrorIs(t, err, loaderr.ErrAmbiguousConstructor)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Defaults>
    <Default Class="Node" Label="base" Size="1" Visible="true"/>
    <Default Class="Widget" Label="derived"/>
  </Defaults>
  <Widget Class="Widget" Key="a" ID="`+id1+`"/>
  <Widget Class="Widget" Key="b" ID="`+id2+`" Size="5" Label="attr"/>
  <Widget Class="Widget" Key="c" ID="`+id3+`" Label="attr">
    <Label>child</Label>
  </Widget>
</Document>`, doctree.FormatXML)

	widgets, err := Load[*Widget](context.Background(), newBuilder(t), doc, "Widget")
	require.NoError(t, err)
	require.Len(t, widgets, 3)

	got := make([]Node, len(widgets))
	for i, w := range widgets {
		got[i] = w.Node
	}
	want := []Node{
		{Visible: true, Label: "derived", Size: 1},
		{Visible: true, Label: "attr", Size: 5},
		{Visible: true, Label: "child", Size: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("precedence mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_DefaultElements(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Defaults>
    <Default Class="Widget"><Color Name="grey"/></Default>
  </Defaults>
  <Widget Class="Widget" Key="a" ID="`+id1+`"/>
</Document>`, doctree.FormatXML)

	widgets, err := Load[*Widget](context.Background(), newBuilder(t), doc, "Widget")
	require.NoError(t, err)
	assert.Equal(t, &Color{Name: "grey"}, widgets[0].Color)
}

func TestLoad_EmptyCollectionElements(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"empty list":                `<Document><Holder Class="Holder"><Tags/></Holder></Document>`,
		"empty items block":         `<Document><Holder Class="Holder"><Tags><Items/></Tags></Holder></Document>`,
		"two capabilities no items": `<Document><Holder Class="Holder"><Multi/></Holder></Document>`,
	}

	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			holders, err := Load[*Holder](context.Background(), newBuilder(t), parse(t, src, doctree.FormatXML), "Holder")
			require.NoError(t, err)
			require.Len(t, holders, 1)
			assert.Empty(t, holders[0].Tags.items)
		})
	}
}

func TestLoad_Polymorphism(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Widget Class="Widget" Key="a" ID="`+id1+`">
    <Shape Type="Circle" Radius="2"/>
    <Shapes>
      <Items>
        <Item Type="Square" Side="3"/>
        <Item Type="Circle" Radius="1"/>
      </Items>
    </Shapes>
    <Ratio>0.25</Ratio>
  </Widget>
</Document>`, doctree.FormatXML)

	widgets, err := Load[*Widget](context.Background(), newBuilder(t), doc, "Widget")
	require.NoError(t, err)
	w := widgets[0]
	assert.Equal(t, &Circle{Radius: 2}, w.Shape)
	require.Len(t, w.Shapes, 2)
	assert.Equal(t, 9.0, w.Shapes[0].Area())
	assert.Equal(t, 3.0, w.Shapes[1].Area())
	require.NotNil(t, w.Ratio)
	assert.Equal(t, 0.25, *w.Ratio)
}

func TestLoad_AsInterface(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document><Shape Class="Circle" Radius="1"/><Shape Class="Square" Side="2"/></Document>`, doctree.FormatXML)
	shapes, err := Load[Shape](context.Background(), newBuilder(t), doc, "Shape")
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, 3.0, shapes[0].Area())
	assert.Equal(t, 4.0, shapes[1].Area())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	widget := func(attrs, body string) string {
		return `<Document><Widget Class="Widget" Key="w" ID="` + id1 + `" ` + attrs + `>` + body + `</Widget></Document>`
	}
	tests := map[string]struct {
		src  string
		kind error
	}{
		"missing class":         {`<Document><Widget Key="w" ID="` + id1 + `"/></Document>`, loaderr.ErrMissingClass},
		"unknown class":         {`<Document><Widget Class="Widgte" Key="w" ID="` + id1 + `"/></Document>`, loaderr.ErrIncompatibleClass},
		"missing key":           {`<Document><Widget Class="Widget" ID="` + id1 + `"/></Document>`, loaderr.ErrMissingKey},
		"missing id":            {`<Document><Widget Class="Widget" Key="w"/></Document>`, loaderr.ErrInvalidID},
		"invalid id":            {`<Document><Widget Class="Widget" Key="w" ID="nope"/></Document>`, loaderr.ErrInvalidID},
		"unknown member":        {widget(`Weight="3"`, ``), loaderr.ErrUnknownMember},
		"bad value":             {widget(`Size="big"`, ``), loaderr.ErrFormat},
		"bad flag":              {widget(`Style="Bold|Blink"`, ``), loaderr.ErrFormat},
		"non item child":        {widget(``, `<Points><Items><Item>1</Item><Thing>2</Thing></Items></Points>`), loaderr.ErrInvalidMemberType},
		"stray array child":     {widget(``, `<Points><Extra/></Points>`), loaderr.ErrInvalidMemberType},
		"two items blocks":      {widget(``, `<Points><Items/><Items/></Points>`), loaderr.ErrAmbiguousElement},
		"array length":          {widget(``, `<Corners><Items><Item>1</Item></Items></Corners>`), loaderr.ErrInvalidMemberType},
		"interface needs type":  {widget(``, `<Shape Radius="1"/>`), loaderr.ErrMissingClass},
		"type not assignable":   {widget(``, `<Shape Type="Color" R="1"/>`), loaderr.ErrIncompatibleClass},
		"unresolved reference":  {widget(`Parent="widgets:nope"`, ``), loaderr.ErrUnresolvedReference},
		"scalar gets content":   {widget(``, `<Size Type="int"/>`), loaderr.ErrInvalidMemberType},
		"two ctor blocks":       {`<Document><Gear Class="Gear"><Constructor/><Constructor/></Gear></Document>`, loaderr.ErrAmbiguousElement},
		"list item unparsable":  {`<Document><Holder Class="Holder"><Tags><Items><Item><Deep X="1"/></Item></Items></Tags></Holder></Document>`, loaderr.ErrInvalidMemberType},
		"two list capabilities": {`<Document><Holder Class="Holder"><Multi><Items><Item>a</Item></Items></Multi></Holder></Document>`, loaderr.ErrUnsupportedCollection},
		"no list capability":    {`<Document><Holder Class="Holder"><Color><Items><Item>a</Item></Items></Color></Holder></Document>`, loaderr.ErrUnsupportedCollection},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc := parse(t, tt.src, doctree.FormatXML)
			root := doc.Root()
			elementName := root.Elements()[0].Name()
			objs, err := Load[any](context.Background(), newBuilder(t), doc, elementName)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Nil(t, objs)

			var le *loaderr.Error
			require.ErrorAs(t, err, &le)
			assert.NotEmpty(t, le.Path, "errors carry the element path")
		})
	}
}

func TestLoad_IncompatibleClass(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document><Widget Class="Color" R="1"/></Document>`, doctree.FormatXML)
	_, err := Load[*Widget](context.Background(), newBuilder(t), doc, "Widget")
	assert.ErrorIs(t, err, loaderr.ErrIncompatibleClass)

	_, err = Load[Shape](context.Background(), newBuilder(t), doc, "Widget")
	assert.ErrorIs(t, err, loaderr.ErrIncompatibleClass)
}

func TestLoad_UnknownClassSuggestsName(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document><Widget Class="github.com/specialistvlad/definer/internal/construct.Widgte"/></Document>`, doctree.FormatXML)
	_, err := Load[any](context.Background(), newBuilder(t), doc, "Widget")
	require.ErrorIs(t, err, loaderr.ErrIncompatibleClass)
	assert.Contains(t, err.Error(), `did you mean "github.com/specialistvlad/definer/internal/construct.Widget"`)
}

func TestLoad_AtomicOnLaterFailure(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document>
  <Gear Class="Gear"><Constructor><Argument>1</Argument></Constructor></Gear>
  <Gear Class="Gear"><Constructor><Argument>1</Argument><Argument>2</Argument></Constructor></Gear>
</Document>`, doctree.FormatXML)
	gears, err := Load[*Gear](context.Background(), newBuilder(t), doc, "Gear")
	require.ErrorIs(t, err, loaderr.ErrConstructorNotFound)
	assert.Nil(t, gears)
	assert.Contains(t, err.Error(), "Document/Gear[1]")
}

func TestLoadOne_AndConstruct(t *testing.T) {
	t.Parallel()

	b := newBuilder(t)
	doc := parse(t, `<Document>
  <Aliases><Alias Name="C">github.com/specialistvlad/definer/internal/construct.Color</Alias></Aliases>
  <Paint Class="C" Name="red" R="255"/>
</Document>`, doctree.FormatXML)

	lc, err := b.Context(doc)
	require.NoError(t, err)
	el, ok, err := doc.Root().Element("Paint")
	require.NoError(t, err)
	require.True(t, ok)

	c, err := LoadOne[Color](context.Background(), b, lc, el)
	require.NoError(t, err)
	assert.Equal(t, Color{R: 255, Name: "red"}, c)

	v, err := b.Construct(context.Background(), lc, el, reflect.TypeFor[any]())
	require.NoError(t, err)
	assert.Equal(t, &Color{R: 255, Name: "red"}, v.Interface())
}

func TestLoad_FallbackClass(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<Document><Color R="1"/><Color Class="Color" G="2"/></Document>`, doctree.FormatXML)
	colors, err := Load[Color](context.Background(), newBuilder(t, WithFallbackClass("Color")), doc, "Color")
	require.NoError(t, err)
	assert.Equal(t, []Color{{R: 1}, {G: 2}}, colors)
}

func TestLoad_LogsBuildSteps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	doc := parse(t, `<Document><Color Class="Color" R="1"/></Document>`, doctree.FormatXML)
	_, err := Load[Color](ctx, newBuilder(t), doc, "Color")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Building object.")
	assert.Contains(t, buf.String(), "member=R")
}
