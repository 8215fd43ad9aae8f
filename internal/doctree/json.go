package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// jsonParser walks the token stream so member order survives; decoding into
// maps would lose it.
type jsonParser struct {
	doc   *Document
	dec   *json.Decoder
	lines lineIndex
}

func parseJSON(doc *Document, src []byte) error {
	p := &jsonParser{doc: doc, dec: json.NewDecoder(bytes.NewReader(src)), lines: newLineIndex(src)}
	p.dec.UseNumber()

	tok, err := p.token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return loaderr.New(loaderr.ErrFormat, "top-level value must be an object")
	}
	root := doc.addElement(noParent, RootName, p.line())
	if err := p.object(root); err != nil {
		return err
	}
	if _, err := p.dec.Token(); err != io.EOF {
		return loaderr.New(loaderr.ErrFormat, "unexpected data after the top-level object near line %d", p.line())
	}
	return nil
}

func (p *jsonParser) line() int {
	return p.lines.line(p.dec.InputOffset())
}

func (p *jsonParser) token() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, loaderr.Wrap(nil, loaderr.ErrFormat, err, "malformed JSON near line %d", p.line())
	}
	return tok, nil
}

// object consumes members up to the closing brace, attaching them to idx.
func (p *jsonParser) object(idx int32) error {
	for p.dec.More() {
		tok, err := p.token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return loaderr.New(loaderr.ErrFormat, "line %d: expected member name, got %v", p.line(), tok)
		}
		if err := p.member(idx, name); err != nil {
			return err
		}
	}
	if _, err := p.token(); err != nil { // '}'
		return err
	}
	p.doc.promoteValue(idx)
	return nil
}

// member reads one member value and classifies it as attribute or element.
func (p *jsonParser) member(owner int32, name string) error {
	line := p.line()
	tok, err := p.token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object(p.doc.addElement(owner, name, line))
		case '[':
			return p.array(owner, name)
		}
		return loaderr.New(loaderr.ErrFormat, "line %d: unexpected %v", line, t)
	default:
		p.doc.addAttribute(owner, name, scalarText(t), line)
		return nil
	}
}

// array turns every entry into a sibling element named after the member.
// Nested arrays become an element whose entries are named "Item".
func (p *jsonParser) array(owner int32, name string) error {
	for p.dec.More() {
		line := p.line()
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case json.Delim:
			idx := p.doc.addElement(owner, name, line)
			switch t {
			case '{':
				err = p.object(idx)
			case '[':
				err = p.array(idx, "Item")
			}
			if err != nil {
				return err
			}
		default:
			idx := p.doc.addElement(owner, name, line)
			p.doc.setValue(idx, scalarText(t))
		}
	}
	_, err := p.token() // ']'
	return err
}

func scalarText(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(tok)
}
