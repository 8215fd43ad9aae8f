package doctree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// The same logical document in every tagged-data format must produce the
// same tree.
func TestTaggedFormats_SameTree(t *testing.T) {
	t.Parallel()

	want := shape{
		Name: RootName,
		Children: []shape{
			{Name: "Widget", Attrs: map[string]string{"Class": "Widget", "Key": "w1", "Size": "5"}, Children: []shape{
				{Name: "Color", Attrs: map[string]string{"R": "1", "G": "2", "B": "3"}},
			}},
			{Name: "Widget", Attrs: map[string]string{"Class": "Widget", "Key": "w2", "Size": "7"}},
		},
	}

	sources := map[Format]string{
		FormatJSON: `{
			"Widget": [
				{"Class": "Widget", "Key": "w1", "Size": 5, "Color": {"R": 1, "G": 2, "B": 3}},
				{"Class": "Widget", "Key": "w2", "Size": 7}
			]
		}`,
		FormatYAML: `
Widget:
  - Class: Widget
    Key: w1
    Size: 5
    Color: {R: 1, G: 2, B: 3}
  - Class: Widget
    Key: w2
    Size: 7
`,
		FormatHCL: `
Widget "w1" {
  Class = "Widget"
  Size  = 5
  Color = { B = 3, G = 2, R = 1 }
}
Widget "w2" {
  Class = "Widget"
  Size  = 7
}
`,
	}

	for format, src := range sources {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()
			doc, err := ParseString(src, format)
			require.NoError(t, err)
			if diff := cmp.Diff(want, snapshot(doc.Root())); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJSON_ArraysAndValue(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`{
		"Tags": {"Items": {"Item": ["a", "b", "c"]}},
		"Label": {"Value": "hello", "Lang": "en"},
		"Flag": true,
		"Empty": null,
		"Grid": [[1, 2], [3]]
	}`, FormatJSON)
	require.NoError(t, err)
	root := doc.Root()

	tags, ok, err := root.Element("Tags")
	require.NoError(t, err)
	require.True(t, ok)
	items, ok, err := tags.Element("Items")
	require.NoError(t, err)
	require.True(t, ok)
	var values []string
	for _, it := range items.Elements("Item") {
		values = append(values, it.Value())
	}
	assert.Equal(t, []string{"a", "b", "c"}, values)

	label, _, err := root.Element("Label")
	require.NoError(t, err)
	assert.Equal(t, "hello", label.Value())
	assert.Equal(t, "en", label.AttributeValue("Lang"))

	assert.Equal(t, "true", root.AttributeValue("Flag"))
	empty, ok := root.Attribute("Empty")
	require.True(t, ok)
	assert.Equal(t, "", empty.Value())

	rows := root.Elements("Grid")
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Elements("Item"), 2)
	assert.Len(t, rows[1].Elements("Item"), 1)
}

func TestParseJSON_Errors(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"array root": `[1, 2]`,
		"truncated":  `{"A": {"B": 1}`,
		"garbage":    `{"A" 1}`,
		"two roots":  `{"A": {}} {"B": {}}`,
		"trailing":   `{"A": {}} x`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(src, FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, loaderr.ErrFormat)
		})
	}
}

func TestParseJSON_Lines(t *testing.T) {
	t.Parallel()

	doc, err := ParseString("{\n  \"A\": {\n    \"B\": 1\n  }\n}", FormatJSON)
	require.NoError(t, err)
	a, ok, err := doc.Root().Element("A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, a.Line())
}

func TestParseYAML_AnchorsAndNull(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`
base: &base
  Size: 3
Widget:
  Inner: *base
  Note: ~
`, FormatYAML)
	require.NoError(t, err)

	w, ok, err := doc.Root().Element("Widget")
	require.NoError(t, err)
	require.True(t, ok)
	inner, ok, err := w.Element("Inner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", inner.AttributeValue("Size"))
	assert.Equal(t, "", w.AttributeValue("Note"))
	assert.Equal(t, 4, w.Line())
}

func TestParseYAML_RejectsScalarRoot(t *testing.T) {
	t.Parallel()

	_, err := ParseString(`just text`, FormatYAML)
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrFormat)
}

func TestParseHCL(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`
Aliases {
  Alias "Widget" {
    Value   = "example.Widget"
    Default = true
  }
}
Widget "w1" {
  Size = 5
  Tags {
    Items {
      Item = ["x", "y"]
    }
  }
}
`, FormatHCL)
	require.NoError(t, err)
	root := doc.Root()

	aliases, ok, err := root.Element("Aliases")
	require.NoError(t, err)
	require.True(t, ok)
	alias := aliases.Elements("Alias")
	require.Len(t, alias, 1)
	assert.Equal(t, "Widget", alias[0].AttributeValue("Key"))
	assert.Equal(t, "example.Widget", alias[0].Value())
	assert.Equal(t, "true", alias[0].AttributeValue("Default"))

	w, _, err := root.Element("Widget")
	require.NoError(t, err)
	assert.Equal(t, "w1", w.AttributeValue("Key"))
	assert.Equal(t, 8, w.Line())
	tags, _, err := w.Element("Tags")
	require.NoError(t, err)
	items, _, err := tags.Element("Items")
	require.NoError(t, err)
	assert.Len(t, items.Elements("Item"), 2)
}

func TestParseHCL_Errors(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"syntax":     `Widget {`,
		"variable":   `Size = var.size`,
		"two labels": `Widget "a" "b" {}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(src, FormatHCL)
			require.Error(t, err)
			assert.ErrorIs(t, err, loaderr.ErrFormat)
		})
	}
}
