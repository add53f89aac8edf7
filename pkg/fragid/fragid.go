// Package fragid implements the dense fragment identifier space: a
// variable-length sequence of 16-bit digits, totally ordered, with the
// property that between any two distinct identifiers a new one can always
// be minted that sorts strictly between them. This is what lets the sum
// tree of fragments stay ordered without ever renumbering existing
// entries when a concurrent insert lands between two neighbors.
package fragid

import (
	"bytes"
	"encoding/binary"
)

// maxDigit is the largest digit value: digits lie in [0, maxDigit].
const maxDigit = 0xFFFF

// unbounded stands in for "one past the largest representable digit" when
// minting an identifier that only needs to exceed a lower bound (no upper
// neighbor constrains it at this level). It intentionally does not fit in
// a digit; see Between.
const unbounded = maxDigit + 1

// ID is a dense, totally ordered fragment identifier. The zero value is
// not a valid identifier; use Min or Max for the reserved sentinels.
type ID []uint16

// Min is the smallest possible identifier. No fragment may sort before it.
func Min() ID { return ID{0} }

// Max is the largest possible identifier. No fragment may sort after it.
func Max() ID { return ID{maxDigit} }

func digitAt(id ID, i int) int {
	if i < len(id) {
		return int(id[i])
	}
	return 0
}

// Compare returns -1, 0 or 1 as a is less than, equal to, or greater than
// b, comparing lexicographically with implicit trailing zeros on the
// shorter identifier.
func Compare(a, b ID) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		da, db := digitAt(a, i), digitAt(b, i)
		if da != db {
			if da < db {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Less reports whether a sorts strictly before b.
func Less(a, b ID) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b denote the same identifier.
func Equal(a, b ID) bool { return Compare(a, b) == 0 }

// Clone returns an independent copy of id.
func (id ID) Clone() ID {
	out := make(ID, len(id))
	copy(out, id)
	return out
}

// Between returns an identifier strictly greater than a and strictly less
// than b. a must be strictly less than b (Compare(a, b) < 0); violating
// this is a programmer error and Between panics, since it can only be
// triggered by a bug in the caller's causal bookkeeping, never by remote
// input.
//
// The algorithm walks digit by digit. While digits of a and b agree it
// copies them into the result and descends a level. At the first digit
// where they disagree there are two cases: if there is more than one
// value strictly between them, it picks a midpoint offset (capped at 8,
// so identifiers stay short in the common case) and stops. If they differ by exactly 1,
// there is no room at this level, so the result commits a's digit and
// continues growing past it, now only bounded below (by a's remaining
// digits) and unbounded above, which always succeeds once a runs out of
// digits (digit 0 has room below unbounded).
func Between(a, b ID) ID {
	if Compare(a, b) >= 0 {
		panic("fragid: Between requires a < b")
	}

	result := make(ID, 0, len(a)+1)
	i := 0
	boundedAbove := true

	for {
		da := digitAt(a, i)
		var db int
		if boundedAbove {
			if i < len(b) {
				db = int(b[i])
			} else {
				db = 0
			}
		} else {
			db = unbounded
		}

		if boundedAbove && da == db {
			result = append(result, uint16(da))
			i++
			continue
		}

		gap := db - da
		if gap > 1 {
			offset := gap / 2
			if offset > 8 {
				offset = 8
			}
			if offset < 1 {
				offset = 1
			}
			result = append(result, uint16(da+offset))
			return result
		}

		// gap == 1: no room between da and db at this digit. Commit da and
		// keep descending, now unbounded above.
		result = append(result, uint16(da))
		i++
		boundedAbove = false
	}
}

// Bytes returns a canonical big-endian byte encoding of id, suitable for
// use as a map or sort key alongside other identifiers' encodings; two
// identifiers compare the same way as their encodings compare
// byte-for-byte when padded, though callers needing ordering should
// prefer Compare directly.
func (id ID) Bytes() []byte {
	buf := make([]byte, 2*len(id))
	for i, d := range id {
		binary.BigEndian.PutUint16(buf[2*i:], d)
	}
	return buf
}

// String renders id as a dotted sequence of decimal digits, e.g. "0.8.3".
func (id ID) String() string {
	var b bytes.Buffer
	for i, d := range id {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(uitoa(uint64(d)))
	}
	return b.String()
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
