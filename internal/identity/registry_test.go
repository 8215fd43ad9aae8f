package identity

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/definer/internal/loaderr"
)

type item struct {
	key   string
	id    GlobalID
	local LocalID
}

func (i *item) Key() string             { return i.key }
func (i *item) GlobalID() GlobalID      { return i.id }
func (i *item) SetLocalID(l LocalID)    { i.local = l }

func newItem(key string) *item { return &item{key: key, id: NewGlobalID()} }

func records(items ...*item) []KeyRecord {
	out := make([]KeyRecord, 0, len(items))
	for _, it := range items {
		out = append(out, KeyRecord{Key: it.key, ID: it.id})
	}
	return out
}

func TestRegistry_PhaseOrdering(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	assert.Equal(t, Uninitialized, r.State())

	err := r.LoadObjects(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrKeysNotLoaded)

	require.NoError(t, r.LoadKeys(nil))
	assert.Equal(t, KeysLoaded, r.State())

	err = r.LoadKeys(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrKeysAlreadyLoaded)

	require.NoError(t, r.LoadObjects(nil))
	assert.Equal(t, ObjectsLoaded, r.State())

	err = r.LoadObjects(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrObjectsAlreadyLoaded)

	err = r.LoadKeys(nil)
	assert.ErrorIs(t, err, loaderr.ErrKeysAlreadyLoaded)

	r.Clear()
	assert.Equal(t, Uninitialized, r.State())
	require.NoError(t, r.LoadKeys(nil))
	require.NoError(t, r.LoadObjects(nil))
}

func TestRegistry_RegisterBeforeKeys(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	_, err := r.Register("a", newItem("a"))
	assert.ErrorIs(t, err, loaderr.ErrKeysNotLoaded)
}

func TestRegistry_SequentialLocalIDs(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	require.NoError(t, r.LoadKeys(nil))

	const n = 20
	items := make([]*item, n)
	for i := range items {
		items[i] = newItem(fmt.Sprintf("k%02d", i))
		local, err := r.Register(items[i].key, items[i])
		require.NoError(t, err)
		assert.Equal(t, LocalID(i+1), local)
		assert.Equal(t, LocalID(i+1), items[i].local, "setter receives the id")
	}
	assert.Equal(t, n, r.Len())

	for i, it := range items {
		got, ok := r.ByLocal(LocalID(i + 1))
		require.True(t, ok)
		assert.Same(t, it, got)

		got, ok = r.ByGlobal(it.id)
		require.True(t, ok)
		assert.Same(t, it, got)

		got, ok = r.ByKey(it.key)
		require.True(t, ok)
		assert.Same(t, it, got)
	}

	_, ok := r.ByLocal(0)
	assert.False(t, ok)
	_, ok = r.ByLocal(n + 1)
	assert.False(t, ok)
}

func TestRegistry_DuplicateGlobalIDDoesNotMutate(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	a := newItem("a")
	require.NoError(t, r.LoadKeys(records(a)))
	_, err := r.Register("a", a)
	require.NoError(t, err)

	before := r.Keys()
	clash := &item{key: "b", id: a.id}
	_, err = r.Register("b", clash)
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrDuplicateIdentity)

	if diff := cmp.Diff(before, r.Keys()); diff != "" {
		t.Errorf("key table changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, 1, r.Len())
	_, ok := r.LookupKey("b")
	assert.False(t, ok)
}

func TestRegistry_KeyBoundToOtherID(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	a := newItem("a")
	require.NoError(t, r.LoadKeys(records(a)))

	_, err := r.Register("a", newItem("a"))
	assert.ErrorIs(t, err, loaderr.ErrIdentityMismatch)
}

func TestRegistry_Capacity(t *testing.T) {
	t.Parallel()

	r := New[*item]("things")
	r.limit = 3
	require.NoError(t, r.LoadKeys(nil))
	for i := 0; i < 3; i++ {
		_, err := r.Register(fmt.Sprint(i), newItem(fmt.Sprint(i)))
		require.NoError(t, err)
	}
	_, err := r.Register("overflow", newItem("overflow"))
	assert.ErrorIs(t, err, loaderr.ErrRegistryCapacity)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_LoadKeysValidation(t *testing.T) {
	t.Parallel()

	id := NewGlobalID()
	cases := []struct {
		name    string
		records []KeyRecord
		want    error
	}{
		{"empty key", []KeyRecord{{Key: "", ID: id}}, loaderr.ErrMissingKey},
		{"nil id", []KeyRecord{{Key: "a"}}, loaderr.ErrInvalidID},
		{"key rebound", []KeyRecord{{Key: "a", ID: id}, {Key: "a", ID: NewGlobalID()}}, loaderr.ErrIdentityMismatch},
		{"id reused", []KeyRecord{{Key: "a", ID: id}, {Key: "b", ID: id}}, loaderr.ErrDuplicateIdentity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := New[*item]("things")
			err := r.LoadKeys(tc.records)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, Uninitialized, r.State())
		})
	}
}

func TestRegistry_LoadObjectsIsAtomic(t *testing.T) {
	t.Parallel()

	a, b := newItem("a"), newItem("b")
	r := New[*item]("things")
	require.NoError(t, r.LoadKeys(records(a)))

	dup := &item{key: "c", id: b.id}
	err := r.LoadObjects([]*item{a, b, dup})
	require.Error(t, err)
	assert.ErrorIs(t, err, loaderr.ErrDuplicateIdentity)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, KeysLoaded, r.State())
	assert.Equal(t, records(a), r.Keys(), "keys added during the failed load are dropped")

	require.NoError(t, r.LoadObjects([]*item{a, b}))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ByReference(t *testing.T) {
	t.Parallel()

	a := newItem("a")
	r := New[*item]("things")
	require.NoError(t, r.LoadKeys(records(a)))
	require.NoError(t, r.LoadObjects([]*item{a}))

	for _, ref := range []string{"a", "things:a", a.id.String(), " things:a "} {
		got, err := r.ByReference(ref)
		require.NoError(t, err, ref)
		assert.Same(t, a, got)
	}

	for _, ref := range []string{"", NoneLiteral, "other:a", "things:zz", NewGlobalID().String()} {
		_, err := r.ByReference(ref)
		assert.ErrorIs(t, err, loaderr.ErrUnresolvedReference, ref)
	}
}

func TestDirectory_Resolve(t *testing.T) {
	t.Parallel()

	a := newItem("a")
	things := New[*item]("things")
	require.NoError(t, things.LoadKeys(records(a)))

	dir, err := NewDirectory(things)
	require.NoError(t, err)

	ref, err := dir.Resolve("things:a")
	require.NoError(t, err)
	assert.Equal(t, a.id, ref.ID)
	assert.Equal(t, "things:a", ref.Source)

	for _, empty := range []string{"", "  ", NoneLiteral} {
		ref, err := dir.Resolve(empty)
		require.NoError(t, err)
		assert.True(t, ref.IsZero())
	}

	literal := NewGlobalID()
	ref, err = dir.Resolve(literal.String())
	require.NoError(t, err)
	assert.Equal(t, literal, ref.ID)

	_, err = dir.Resolve("things:missing")
	assert.ErrorIs(t, err, loaderr.ErrUnresolvedReference)
	_, err = dir.Resolve("nowhere:a")
	assert.ErrorIs(t, err, loaderr.ErrUnresolvedReference)
	_, err = dir.Resolve("not a reference")
	assert.ErrorIs(t, err, loaderr.ErrFormat)

	err = dir.Add(New[*item]("things"))
	assert.ErrorIs(t, err, loaderr.ErrDuplicateAlias)

	var nilDir *Directory
	ref, err = nilDir.Resolve(literal.String())
	require.NoError(t, err)
	assert.Equal(t, literal, ref.ID)
	_, err = nilDir.Resolve("things:a")
	assert.ErrorIs(t, err, loaderr.ErrUnresolvedReference)
}

func TestReference_EqualityIgnoresSource(t *testing.T) {
	t.Parallel()

	id := NewGlobalID()
	x := Reference{ID: id, Source: "things:a"}
	y := Reference{ID: id}
	assert.True(t, x.Equal(y))
	assert.Equal(t, 0, x.Compare(y))
	assert.Equal(t, NoneLiteral, Reference{}.String())

	text, err := Reference{}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, NoneLiteral, string(text))
}

func TestParseGlobalID(t *testing.T) {
	t.Parallel()

	id, err := ParseGlobalID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id.String())

	_, err = ParseGlobalID("not-an-id")
	assert.ErrorIs(t, err, loaderr.ErrInvalidID)
	assert.Panics(t, func() { MustParseGlobalID("nope") })
}

func TestRecords_RoundTrip(t *testing.T) {
	t.Parallel()

	want := []KeyRecord{
		{Key: "a", ID: MustParseGlobalID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{Key: "b", ID: MustParseGlobalID("6ba7b811-9dad-11d1-80b4-00c04fd430c8")},
	}

	var y bytes.Buffer
	require.NoError(t, WriteYAML(&y, want))
	assert.Contains(t, y.String(), "key: a")
	gotY, err := ReadYAML(&y)
	require.NoError(t, err)
	assert.Equal(t, want, gotY)

	var j bytes.Buffer
	require.NoError(t, WriteJSON(&j, want))
	gotJ, err := ReadJSON(&j)
	require.NoError(t, err)
	assert.Equal(t, want, gotJ)
}
