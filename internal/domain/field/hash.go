package field

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hata-go/hata/internal/domain/shared"
)

// Hasher accumulates entity fields into a 64-bit hash.
type Hasher struct {
	digest *xxhash.Digest
	buf    [8]byte
}

// NewHasher returns an empty hasher.
func NewHasher() *Hasher {
	return &Hasher{digest: xxhash.New()}
}

// String mixes in a string. Strings are length-prefixed so "ab","c" and
// "a","bc" hash differently.
func (h *Hasher) String(s string) *Hasher {
	h.Uint64(uint64(len(s)))
	_, _ = h.digest.WriteString(s)
	return h
}

// Uint64 mixes in an integer.
func (h *Hasher) Uint64(v uint64) *Hasher {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.digest.Write(h.buf[:])
	return h
}

// Int mixes in an int.
func (h *Hasher) Int(v int) *Hasher {
	return h.Uint64(uint64(v))
}

// Bool mixes in a boolean.
func (h *Hasher) Bool(v bool) *Hasher {
	if v {
		return h.Uint64(1)
	}
	return h.Uint64(0)
}

// ID mixes in a snowflake.
func (h *Hasher) ID(id shared.Snowflake) *Hasher {
	return h.Uint64(uint64(id))
}

// Time mixes in a timestamp; the zero time hashes as 0.
func (h *Hasher) Time(t time.Time) *Hasher {
	if t.IsZero() {
		return h.Uint64(0)
	}
	return h.Uint64(uint64(t.UnixMicro()))
}

// Icon mixes in an image hash.
func (h *Hasher) Icon(icon shared.Icon) *Hasher {
	h.Uint64(uint64(icon.Type))
	_, _ = h.digest.Write(icon.Hash[:])
	return h
}

// Sum returns the hash.
func (h *Hasher) Sum() uint64 {
	return h.digest.Sum64()
}

// Repr builds the "<Type field=value, ...>" representation of an entity.
type Repr struct {
	b     strings.Builder
	count int
}

// NewRepr starts a representation for typeName.
func NewRepr(typeName string) *Repr {
	r := &Repr{}
	r.b.WriteByte('<')
	r.b.WriteString(typeName)
	return r
}

// Field appends name=value.
func (r *Repr) Field(name string, value any) *Repr {
	if r.count == 0 {
		r.b.WriteByte(' ')
	} else {
		r.b.WriteString(", ")
	}
	r.count++
	r.b.WriteString(name)
	r.b.WriteByte('=')
	switch v := value.(type) {
	case string:
		fmt.Fprintf(&r.b, "%q", v)
	case time.Time:
		r.b.WriteString(FormatTimestamp(v))
	default:
		fmt.Fprint(&r.b, v)
	}
	return r
}

// FieldIf appends name=value when cond holds.
func (r *Repr) FieldIf(cond bool, name string, value any) *Repr {
	if cond {
		r.Field(name, value)
	}
	return r
}

// String closes the representation.
func (r *Repr) String() string {
	return r.b.String() + ">"
}
