package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// NoneLiteral is the textual form of an absent reference.
const NoneLiteral = "(none)"

// Reference is a resolved pointer to a registered object. Source keeps the
// text it was resolved from for diagnostics only; equality and ordering use
// the ID alone.
type Reference struct {
	ID     GlobalID
	Source string
}

// IsZero reports whether the reference points at nothing.
func (r Reference) IsZero() bool { return r.ID.IsZero() }

func (r Reference) Equal(other Reference) bool { return r.ID == other.ID }

func (r Reference) Compare(other Reference) int { return r.ID.Compare(other.ID) }

func (r Reference) String() string {
	if r.IsZero() {
		return NoneLiteral
	}
	if r.Source != "" && r.Source != r.ID.String() {
		return r.ID.String() + " (" + r.Source + ")"
	}
	return r.ID.String()
}

func (r Reference) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return []byte(NoneLiteral), nil
	}
	return r.ID.MarshalText()
}

// KeyResolver is a named key table.
type KeyResolver interface {
	Name() string
	LookupKey(key string) (GlobalID, bool)
}

// Directory resolves reference literals against a set of named key tables.
// A nil Directory only understands literal ids and the absent forms.
type Directory struct {
	tables map[string]KeyResolver
}

// NewDirectory returns a directory over the given key tables.
func NewDirectory(tables ...KeyResolver) (*Directory, error) {
	d := &Directory{tables: make(map[string]KeyResolver, len(tables))}
	for _, t := range tables {
		if err := d.Add(t); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add makes a key table resolvable under its name.
func (d *Directory) Add(t KeyResolver) error {
	if d.tables == nil {
		d.tables = make(map[string]KeyResolver)
	}
	if _, exists := d.tables[t.Name()]; exists {
		return loaderr.New(loaderr.ErrDuplicateAlias, "registry %q already in directory", t.Name())
	}
	d.tables[t.Name()] = t
	return nil
}

// Resolve turns a reference literal into a Reference. Accepted forms are a
// 128-bit id in canonical form, "registry-name:key", and the empty string
// or "(none)" for the absent reference.
func (d *Directory) Resolve(text string) (Reference, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == NoneLiteral {
		return Reference{}, nil
	}
	if u, err := uuid.Parse(text); err == nil {
		return Reference{ID: GlobalID(u), Source: text}, nil
	}

	name, key, ok := strings.Cut(text, ":")
	if !ok || name == "" || key == "" {
		return Reference{}, loaderr.New(loaderr.ErrFormat, "%q is neither an identifier nor a registry:key reference", text)
	}
	if d == nil {
		return Reference{}, loaderr.New(loaderr.ErrUnresolvedReference, "%q: no registries available", text)
	}
	table, ok := d.tables[name]
	if !ok {
		return Reference{}, loaderr.New(loaderr.ErrUnresolvedReference, "%q: unknown registry %q", text, name)
	}
	id, ok := table.LookupKey(key)
	if !ok {
		return Reference{}, loaderr.New(loaderr.ErrUnresolvedReference, "%q: no key %q in registry %q", text, key, name)
	}
	return Reference{ID: id, Source: text}, nil
}
