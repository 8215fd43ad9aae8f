package identity

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// GlobalID is the persistent 128-bit identifier of a registered object.
type GlobalID uuid.UUID

// NilID is the zero GlobalID. It never identifies an object.
var NilID GlobalID

// ParseGlobalID parses the canonical textual form of a GlobalID. The braced
// and urn:uuid: forms accepted by uuid.Parse are accepted too.
func ParseGlobalID(s string) (GlobalID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, loaderr.Wrap(nil, loaderr.ErrInvalidID, err, "%q is not a 128-bit identifier", s)
	}
	return GlobalID(u), nil
}

// MustParseGlobalID is like ParseGlobalID but panics on malformed input.
func MustParseGlobalID(s string) GlobalID {
	id, err := ParseGlobalID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NewGlobalID returns a random GlobalID. Documents carry author-assigned ids;
// this exists for tooling that mints them.
func NewGlobalID() GlobalID { return GlobalID(uuid.New()) }

func (id GlobalID) IsZero() bool { return id == NilID }

func (id GlobalID) String() string { return uuid.UUID(id).String() }

// Compare orders ids by their byte representation.
func (id GlobalID) Compare(other GlobalID) int { return bytes.Compare(id[:], other[:]) }

func (id GlobalID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *GlobalID) UnmarshalText(text []byte) error {
	parsed, err := ParseGlobalID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// LocalID is the compact process-local identifier of a registered object.
// Zero means "not registered".
type LocalID uint16

// MaxLocalID is the largest LocalID a registry hands out.
const MaxLocalID = LocalID(^uint16(0))

// Object is a value that carries a key and a GlobalID.
type Object interface {
	Key() string
	GlobalID() GlobalID
}

// LocalIDSetter is implemented by objects that want to learn their LocalID
// when registered.
type LocalIDSetter interface {
	SetLocalID(LocalID)
}

// KeyRecord is the exported form of one key table entry. Key tables can be
// persisted independently of object bodies.
type KeyRecord struct {
	Key string   `yaml:"key" json:"key"`
	ID  GlobalID `yaml:"id" json:"id"`
}
