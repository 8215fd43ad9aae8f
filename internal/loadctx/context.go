package loadctx

import (
	"strconv"
	"strings"

	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/loaderr"
)

// Section and attribute names a document uses to declare aliases and
// defaults.
const (
	AliasesElement  = "Aliases"
	AliasElement    = "Alias"
	DefaultsElement = "Defaults"
	DefaultElement  = "Default"

	NameAttr    = "Name"
	DefaultAttr = "Default"
	ClassAttr   = "Class"
	KeyAttr     = "Key"
	IDAttr      = "ID"
	TypeAttr    = "Type"
	CtorElement = "Constructor"
)

// Reserved reports whether name is one of the member names the constructor
// interprets itself and never assigns to an object.
func Reserved(name string) bool {
	switch name {
	case ClassAttr, KeyAttr, IDAttr, TypeAttr, CtorElement:
		return true
	}
	return false
}

// Default is one default member value. Exactly one of Attribute and Element
// is set.
type Default struct {
	Name      string
	Attribute doctree.Attribute
	Element   doctree.Element
}

type classDefaults struct {
	order  []string
	byName map[string]Default
}

// Context is the alias and default-value state of a single load.
type Context struct {
	global   *AliasTable
	local    map[string]string
	fallback string
	defaults map[string]*classDefaults
}

// Option configures a Context.
type Option func(*Context)

// WithFallback sets the class used when an element names none.
func WithFallback(class string) Option {
	return func(c *Context) { c.fallback = class }
}

// New returns an empty Context layered over global, which may be nil.
func New(global *AliasTable, opts ...Option) *Context {
	c := &Context{
		global:   global,
		local:    make(map[string]string),
		defaults: make(map[string]*classDefaults),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse reads the Aliases and Defaults sections below root. Sections may be
// containers of Alias/Default entries or, as tagged-data arrays produce,
// the entries themselves.
func (c *Context) Parse(root doctree.Element) error {
	if err := c.ParseAliases(entries(root.Elements(AliasesElement), AliasElement, NameAttr, KeyAttr), c.fallback); err != nil {
		return err
	}
	return c.ParseDefaults(entries(root.Elements(DefaultsElement), DefaultElement, ClassAttr))
}

// entries flattens section elements into entry elements. A section that
// carries one of the marker attributes is an entry itself.
func entries(sections []doctree.Element, child string, markers ...string) []doctree.Element {
	var out []doctree.Element
	for _, s := range sections {
		if len(s.Attributes(markers...)) > 0 {
			out = append(out, s)
			continue
		}
		out = append(out, s.Elements(child)...)
	}
	return out
}

// ParseAliases adds local aliases. Each element names the alias with a Name
// attribute (a Key attribute, which HCL block labels produce, also works)
// and carries the target class as its value. An entry with Default="true"
// also becomes the fallback class; two such entries are an error. fallback
// seeds the fallback class before any entry claims it.
func (c *Context) ParseAliases(elements []doctree.Element, fallback string) error {
	c.fallback = strings.TrimSpace(fallback)
	claimed := false
	for _, el := range elements {
		name := el.AttributeValue(NameAttr)
		if name == "" {
			name = el.AttributeValue(KeyAttr)
		}
		name = strings.TrimSpace(name)
		target := strings.TrimSpace(el.Value())
		if target == "" {
			return loaderr.At(el, loaderr.ErrMissingClass, "alias %q has no target class", name)
		}

		if name != "" {
			if prev, ok := c.local[name]; ok && prev != target {
				return loaderr.At(el, loaderr.ErrDuplicateAlias, "alias %q already targets %q", name, prev)
			}
			c.local[name] = target
		}

		if v := el.AttributeValue(DefaultAttr); v != "" {
			isDefault, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return loaderr.Wrap(el, loaderr.ErrFormat, err, "alias %q: invalid %s flag", name, DefaultAttr)
			}
			if !isDefault {
				continue
			}
			if claimed {
				return loaderr.At(el, loaderr.ErrDuplicateAlias, "alias %q: fallback class already set to %q", name, c.fallback)
			}
			claimed = true
			c.fallback = target
		}
	}
	return nil
}

// ParseDefaults records default member values. Each element is a block
// whose Class attribute names the class (aliases allowed) and whose other
// attributes and child elements are the defaults. Later blocks for the same
// class override earlier ones member by member.
func (c *Context) ParseDefaults(elements []doctree.Element) error {
	for _, el := range elements {
		raw := strings.TrimSpace(el.AttributeValue(ClassAttr))
		if raw == "" {
			return loaderr.At(el, loaderr.ErrMissingClass, "defaults block has no %s", ClassAttr)
		}
		class, err := c.ResolveClass(raw)
		if err != nil {
			return err
		}
		cd := c.defaults[class]
		if cd == nil {
			cd = &classDefaults{byName: make(map[string]Default)}
			c.defaults[class] = cd
		}

		for _, a := range el.Attributes() {
			if a.Name() == ClassAttr {
				continue
			}
			if Reserved(a.Name()) {
				return loaderr.At(a, loaderr.ErrReservedMember, "defaults for %s cannot set %q", class, a.Name())
			}
			cd.put(Default{Name: a.Name(), Attribute: a})
		}
		for _, child := range el.Elements() {
			if Reserved(child.Name()) {
				return loaderr.At(child, loaderr.ErrReservedMember, "defaults for %s cannot set %q", class, child.Name())
			}
			cd.put(Default{Name: child.Name(), Element: child})
		}
	}
	return nil
}

func (cd *classDefaults) put(d Default) {
	if _, ok := cd.byName[d.Name]; !ok {
		cd.order = append(cd.order, d.Name)
	}
	cd.byName[d.Name] = d
}

// ResolveClass maps a class name or alias to a fully-qualified class name:
// local aliases first, then global ones, then the input itself. Empty input
// resolves to the fallback class.
func (c *Context) ResolveClass(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if c.fallback == "" {
			return "", loaderr.New(loaderr.ErrMissingClass, "no class given and no fallback class set")
		}
		return c.resolveName(c.fallback), nil
	}
	return c.resolveName(name), nil
}

func (c *Context) resolveName(name string) string {
	if target, ok := c.local[name]; ok {
		return target
	}
	if target, ok := c.global.Lookup(name); ok {
		return target
	}
	return name
}

// Fallback returns the fallback class, unresolved.
func (c *Context) Fallback() string { return c.fallback }

// Local returns the local alias target for name.
func (c *Context) Local(name string) (string, bool) {
	target, ok := c.local[name]
	return target, ok
}

// GetDefaultValues returns the defaults declared for class in declaration
// order, or nil if there are none.
func (c *Context) GetDefaultValues(class string) []Default {
	cd := c.defaults[class]
	if cd == nil {
		return nil
	}
	out := make([]Default, 0, len(cd.order))
	for _, name := range cd.order {
		out = append(out, cd.byName[name])
	}
	return out
}
