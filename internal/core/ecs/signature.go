package ecs

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxComponentKinds is the hard ceiling on registered component kinds: one
// bit of Signature per kind.
const MaxComponentKinds = 64

// Kind is the bit index issued to a component type at registration.
type Kind uint8

// Signature records which component kinds an entity carries, or which a
// system requires.
type Signature uint64

func (s Signature) Has(k Kind) bool          { return s&(1<<k) != 0 }
func (s Signature) With(k Kind) Signature    { return s | 1<<k }
func (s Signature) Without(k Kind) Signature { return s &^ (1 << k) }
func (s Signature) IsEmpty() bool            { return s == 0 }

// Len returns the number of kinds in the signature.
func (s Signature) Len() int { return bits.OnesCount64(uint64(s)) }

// Contains reports whether every kind in required is also in s. This is the
// system compatibility rule: s & required == required.
func (s Signature) Contains(required Signature) bool {
	return s&required == required
}

// Kinds lists the set bits in ascending order.
func (s Signature) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for w := uint64(s); w != 0; w &= w - 1 {
		out = append(out, Kind(bits.TrailingZeros64(w)))
	}
	return out
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Kinds() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(k)))
	}
	b.WriteByte('}')
	return b.String()
}
