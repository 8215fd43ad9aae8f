package value

import (
	"encoding"
	"encoding/base64"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	"golang.org/x/text/language"

	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/loaderr"
)

// CultureParser is implemented by pointer types that parse text according
// to a culture.
type CultureParser interface {
	ParseCulture(text string, culture language.Tag) error
}

// References resolves reference literals. *identity.Directory implements it.
type References interface {
	Resolve(text string) (identity.Reference, error)
}

var (
	cultureParserType   = reflect.TypeFor[CultureParser]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	referenceType       = reflect.TypeFor[identity.Reference]()
	globalIDType        = reflect.TypeFor[identity.GlobalID]()
	durationType        = reflect.TypeFor[time.Duration]()
	bytesType           = reflect.TypeFor[[]byte]()
)

// Resolver converts text into typed values. A Resolver is immutable once
// built and safe for concurrent use as long as its tables are.
type Resolver struct {
	converters *ConverterTable
	enums      *EnumTable
	refs       References
	culture    language.Tag
	ignoreCase bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConverters sets the custom converter table.
func WithConverters(c *ConverterTable) Option { return func(r *Resolver) { r.converters = c } }

// WithEnums sets the enumeration table.
func WithEnums(e *EnumTable) Option { return func(r *Resolver) { r.enums = e } }

// WithReferences sets the reference directory.
func WithReferences(refs References) Option { return func(r *Resolver) { r.refs = refs } }

// WithCulture sets the culture handed to culture-aware parse methods and
// converters. The default is language.Und, the invariant culture.
func WithCulture(tag language.Tag) Option { return func(r *Resolver) { r.culture = tag } }

// WithIgnoreCase makes enumeration member names case-insensitive.
func WithIgnoreCase(ignore bool) Option { return func(r *Resolver) { r.ignoreCase = ignore } }

// New returns a resolver over the process-wide tables unless options say
// otherwise.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		converters: DefaultConverters,
		enums:      DefaultEnums,
		culture:    language.Und,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of r with more options applied.
func (r *Resolver) With(opts ...Option) *Resolver {
	cp := *r
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Culture returns the resolver's culture.
func (r *Resolver) Culture() language.Tag { return r.culture }

// Resolve converts text to a value of type t using the resolver's culture.
func (r *Resolver) Resolve(text string, t reflect.Type) (reflect.Value, error) {
	return r.ResolveCulture(text, t, r.culture)
}

// ResolveCulture converts text to a value of type t using the given culture.
// Failures wrap loaderr.ErrFormat, or loaderr.ErrUnresolvedReference for
// references that name unknown keys.
func (r *Resolver) ResolveCulture(text string, t reflect.Type, culture language.Tag) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		if strings.TrimSpace(text) == "" {
			return reflect.Zero(t), nil
		}
		inner, err := r.ResolveCulture(text, t.Elem(), culture)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	}

	if r.converters != nil {
		if fn, ok := r.converters.Lookup(t); ok {
			v, err := fn(text, culture)
			if err != nil {
				return reflect.Value{}, formatErr(text, t, err)
			}
			return assignable(text, reflect.ValueOf(v), t)
		}
	}

	if r.enums != nil && r.enums.Has(t) {
		return r.enums.Parse(text, t, r.ignoreCase)
	}

	switch t {
	case referenceType:
		ref, err := r.reference(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(ref), nil
	case globalIDType:
		ref, err := r.reference(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(ref.ID), nil
	}

	ptr := reflect.PointerTo(t)
	if ptr.Implements(cultureParserType) {
		p := reflect.New(t)
		if err := p.Interface().(CultureParser).ParseCulture(text, culture); err != nil {
			return reflect.Value{}, formatErr(text, t, err)
		}
		return p.Elem(), nil
	}
	if ptr.Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, formatErr(text, t, err)
		}
		return p.Elem(), nil
	}

	return convertGeneric(text, t)
}

func (r *Resolver) reference(text string) (identity.Reference, error) {
	if r.refs == nil {
		var none *identity.Directory
		return none.Resolve(text)
	}
	return r.refs.Resolve(text)
}

// convertGeneric is the last resort: a few well-known shapes handled
// directly, everything else through cty conversion from a string.
func convertGeneric(text string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch {
	case t == durationType:
		d, err := time.ParseDuration(strings.TrimSpace(text))
		if err != nil {
			return reflect.Value{}, formatErr(text, t, err)
		}
		out.SetInt(int64(d))
		return out, nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return reflect.Value{}, formatErr(text, t, err)
		}
		out.Set(reflect.ValueOf(b).Convert(t))
		return out, nil
	case t.Kind() == reflect.Complex64 || t.Kind() == reflect.Complex128:
		c, err := strconv.ParseComplex(strings.TrimSpace(text), t.Bits())
		if err != nil {
			return reflect.Value{}, formatErr(text, t, err)
		}
		out.SetComplex(c)
		return out, nil
	case t.Kind() == reflect.String:
		out.SetString(text)
		return out, nil
	case t.Kind() == reflect.Interface:
		if reflect.TypeFor[string]().AssignableTo(t) {
			out.Set(reflect.ValueOf(text))
			return out, nil
		}
		return reflect.Value{}, loaderr.New(loaderr.ErrIncompatibleValue, "cannot bind text %q to interface %s", text, t)
	}

	ty, err := gocty.ImpliedType(out.Interface())
	if err != nil {
		return reflect.Value{}, loaderr.Wrap(nil, loaderr.ErrIncompatibleValue, err, "no conversion from text to %s", t)
	}
	cv, err := convert.Convert(cty.StringVal(strings.TrimSpace(text)), ty)
	if err != nil {
		return reflect.Value{}, formatErr(text, t, err)
	}
	if err := gocty.FromCtyValue(cv, out.Addr().Interface()); err != nil {
		return reflect.Value{}, formatErr(text, t, err)
	}
	return out, nil
}

func assignable(text string, v reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case !v.IsValid():
		return reflect.Zero(t), nil
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case v.Type().ConvertibleTo(t) && v.Kind() == t.Kind():
		return v.Convert(t), nil
	}
	return reflect.Value{}, loaderr.New(loaderr.ErrIncompatibleValue, "converter for %s returned %s for %q", t, v.Type(), text)
}

func formatErr(text string, t reflect.Type, cause error) error {
	return loaderr.Wrap(nil, loaderr.ErrFormat, cause, "cannot parse %q as %s", text, t)
}
