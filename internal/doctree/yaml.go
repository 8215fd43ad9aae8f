package doctree

import (
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/definer/internal/loaderr"
)

func parseYAML(doc *Document, src []byte) error {
	var file yaml.Node
	if err := yaml.Unmarshal(src, &file); err != nil {
		return loaderr.Wrap(nil, loaderr.ErrFormat, err, "malformed YAML")
	}
	if file.Kind != yaml.DocumentNode || len(file.Content) == 0 {
		return loaderr.New(loaderr.ErrFormat, "YAML document is empty")
	}
	top := deref(file.Content[0])
	if top.Kind != yaml.MappingNode {
		return loaderr.New(loaderr.ErrFormat, "line %d: top-level value must be a mapping", top.Line)
	}
	root := doc.addElement(noParent, RootName, top.Line)
	return yamlMapping(doc, root, top)
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlMapping(doc *Document, idx int32, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], deref(n.Content[i+1])
		if err := yamlMember(doc, idx, key.Value, key.Line, val); err != nil {
			return err
		}
	}
	doc.promoteValue(idx)
	return nil
}

func yamlMember(doc *Document, owner int32, name string, line int, val *yaml.Node) error {
	switch val.Kind {
	case yaml.ScalarNode:
		doc.addAttribute(owner, name, yamlScalar(val), line)
	case yaml.MappingNode:
		return yamlMapping(doc, doc.addElement(owner, name, line), val)
	case yaml.SequenceNode:
		return yamlSequence(doc, owner, name, val)
	default:
		return loaderr.New(loaderr.ErrFormat, "line %d: unsupported YAML node for %q", line, name)
	}
	return nil
}

func yamlSequence(doc *Document, owner int32, name string, seq *yaml.Node) error {
	for _, item := range seq.Content {
		item = deref(item)
		idx := doc.addElement(owner, name, item.Line)
		switch item.Kind {
		case yaml.ScalarNode:
			doc.setValue(idx, yamlScalar(item))
		case yaml.MappingNode:
			if err := yamlMapping(doc, idx, item); err != nil {
				return err
			}
		case yaml.SequenceNode:
			if err := yamlSequence(doc, idx, "Item", item); err != nil {
				return err
			}
		}
	}
	return nil
}

func yamlScalar(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}
