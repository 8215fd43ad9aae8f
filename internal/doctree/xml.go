package doctree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// parseXML builds the tree from markup. Namespace declarations are dropped
// and names are taken by their local part.
func parseXML(doc *Document, src []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(src))
	var (
		stack []int32
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loaderr.Wrap(nil, loaderr.ErrFormat, err, "malformed markup")
		}
		line, _ := dec.InputPos()

		switch t := tok.(type) {
		case xml.StartElement:
			parent := noParent
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else if len(doc.nodes) > 0 {
				return loaderr.New(loaderr.ErrFormat, "line %d: more than one root element", line)
			}
			idx := doc.addElement(parent, t.Name.Local, line)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				doc.addAttribute(idx, a.Name.Local, a.Value, line)
			}
			stack = append(stack, idx)
			text = append(text, &strings.Builder{})

		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}

		case xml.EndElement:
			top := len(stack) - 1
			doc.setValue(stack[top], strings.TrimSpace(text[top].String()))
			stack, text = stack[:top], text[:top]
		}
	}
	return nil
}
