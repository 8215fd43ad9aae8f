package doctree

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// Format identifies the source syntax of a document.
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatJSON
	FormatYAML
	FormatHCL
)

// RootName is the name given to the synthesized root element of formats
// that have no named root (JSON, YAML, HCL).
const RootName = "Document"

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	default:
		return "unknown"
	}
}

// Extensions lists the file extensions recognized by DetectFormat.
var Extensions = []string{".xml", ".json", ".yaml", ".yml", ".hcl"}

// ParseFormat maps a format name ("xml", "json", "yaml", "yml", "hcl") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	}
	return FormatUnknown, fmt.Errorf("unknown document format %q", name)
}

// DetectFormat derives the document format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatUnknown, fmt.Errorf("cannot detect document format of %q: no extension", path)
	}
	return ParseFormat(ext[1:])
}

// ParseFile reads and parses the document at path, choosing the format from
// its extension.
func ParseFile(path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return ParseBytes(src, format, path)
}

// Parse reads the whole of r and parses it as the given format. The name is
// used in diagnostics.
func Parse(r io.Reader, format Format, name string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return ParseBytes(src, format, name)
}

// ParseString parses an in-memory document.
func ParseString(src string, format Format) (*Document, error) {
	return ParseBytes([]byte(src), format, "<"+format.String()+">")
}

// ParseBytes parses src as the given format.
func ParseBytes(src []byte, format Format, name string) (*Document, error) {
	doc := &Document{name: name, format: format}
	var err error
	switch format {
	case FormatXML:
		err = parseXML(doc, src)
	case FormatJSON:
		err = parseJSON(doc, src)
	case FormatYAML:
		err = parseYAML(doc, src)
	case FormatHCL:
		err = parseHCL(doc, src)
	default:
		return nil, fmt.Errorf("cannot parse %s: unsupported format %s", name, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s document %s: %w", format, name, err)
	}
	if len(doc.nodes) == 0 {
		return nil, loaderr.New(loaderr.ErrFormat, "document %s is empty", name)
	}
	return doc, nil
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for off := 0; ; {
		i := bytes.IndexByte(src[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i + 1
		idx = append(idx, off)
	}
}

func (li lineIndex) line(offset int64) int {
	lo, hi := 0, len(li)
	for lo < hi {
		mid := (lo + hi) / 2
		if int64(li[mid]) <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
