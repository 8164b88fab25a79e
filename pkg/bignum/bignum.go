// Package bignum implements signed arbitrary-precision integers for the
// digit generator.
//
// Values are stored as little-endian base-1e9 limbs with an explicit sign.
// The base keeps every limb product inside uint64 during schoolbook
// multiplication and makes decimal conversion a per-limb operation, which is
// what the checkpoint format needs. All operations are non-mutating: they
// return a fresh value and never modify the receiver or arguments, so values
// can be shared freely across snapshots.
package bignum

import (
	"fmt"
	"strconv"
	"strings"
)

// limbBase is the radix of a single limb. Chosen so that limb*limb plus
// carries stays well below 2^63 and a limb maps to exactly nine decimal
// digits.
const (
	limbBase   = 1_000_000_000
	limbDigits = 9
)

// Int is a signed arbitrary-precision integer. The zero value is 0 and ready
// to use.
type Int struct {
	limbs []uint32 // little-endian base-1e9 magnitude; empty means zero
	neg   bool     // sign; always false when the magnitude is zero
}

// New returns an Int holding v.
func New(v int64) *Int {
	if v == 0 {
		return &Int{}
	}
	neg := v < 0
	var m uint64
	if neg {
		// Two's complement safe negation, including MinInt64.
		m = uint64(-(v + 1)) + 1
	} else {
		m = uint64(v)
	}
	var limbs []uint32
	for m > 0 {
		limbs = append(limbs, uint32(m%limbBase))
		m /= limbBase
	}
	return &Int{limbs: limbs, neg: neg}
}

// FromString parses a decimal integer with an optional leading sign.
// Leading zeros are accepted; "-0" parses to 0.
func FromString(s string) (*Int, error) {
	digits := s
	neg := false
	switch {
	case strings.HasPrefix(digits, "-"):
		neg = true
		digits = digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}
	if digits == "" {
		return nil, fmt.Errorf("bignum: invalid integer %q", s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return nil, fmt.Errorf("bignum: invalid integer %q", s)
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return &Int{}, nil
	}
	limbs := make([]uint32, 0, (len(digits)+limbDigits-1)/limbDigits)
	for len(digits) > 0 {
		start := len(digits) - limbDigits
		if start < 0 {
			start = 0
		}
		v, err := strconv.ParseUint(digits[start:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bignum: invalid integer %q", s)
		}
		limbs = append(limbs, uint32(v))
		digits = digits[:start]
	}
	return &Int{limbs: limbs, neg: neg}, nil
}

// Clone returns an independent copy of x. Because operations never mutate,
// Clone is only needed when handing state across an ownership boundary.
func (x *Int) Clone() *Int {
	out := &Int{neg: x.neg}
	if len(x.limbs) > 0 {
		out.limbs = make([]uint32, len(x.limbs))
		copy(out.limbs, x.limbs)
	}
	return out
}

// Sign returns -1, 0, or 1 depending on whether x is negative, zero, or
// positive.
func (x *Int) Sign() int {
	if len(x.limbs) == 0 {
		return 0
	}
	if x.neg {
		return -1
	}
	return 1
}

// IsZero reports whether x == 0.
func (x *Int) IsZero() bool { return len(x.limbs) == 0 }

// Cmp returns -1, 0, or 1 depending on whether x < y, x == y, or x > y.
func (x *Int) Cmp(y *Int) int {
	if x.neg != y.neg {
		if x.neg {
			return -1
		}
		return 1
	}
	c := cmpMag(x.limbs, y.limbs)
	if x.neg {
		return -c
	}
	return c
}

// Neg returns -x.
func (x *Int) Neg() *Int {
	out := x.Clone()
	if len(out.limbs) > 0 {
		out.neg = !out.neg
	}
	return out
}

// Add returns x + y.
func (x *Int) Add(y *Int) *Int {
	if x.neg == y.neg {
		return makeInt(addMag(x.limbs, y.limbs), x.neg)
	}
	switch cmpMag(x.limbs, y.limbs) {
	case 0:
		return &Int{}
	case 1:
		return makeInt(subMag(x.limbs, y.limbs), x.neg)
	default:
		return makeInt(subMag(y.limbs, x.limbs), y.neg)
	}
}

// Sub returns x - y.
func (x *Int) Sub(y *Int) *Int {
	if x.neg != y.neg {
		return makeInt(addMag(x.limbs, y.limbs), x.neg)
	}
	switch cmpMag(x.limbs, y.limbs) {
	case 0:
		return &Int{}
	case 1:
		return makeInt(subMag(x.limbs, y.limbs), x.neg)
	default:
		return makeInt(subMag(y.limbs, x.limbs), !x.neg)
	}
}

// Mul returns x * y using schoolbook multiplication.
func (x *Int) Mul(y *Int) *Int {
	return makeInt(mulMag(x.limbs, y.limbs), x.neg != y.neg)
}

// MulSmall returns x * m for a single-limb multiplier. m must be below
// 1_000_000_000; larger multipliers go through Mul.
func (x *Int) MulSmall(m uint32) *Int {
	if m >= limbBase {
		panic("bignum: MulSmall multiplier out of limb range")
	}
	if m == 0 || len(x.limbs) == 0 {
		return &Int{}
	}
	out := make([]uint32, len(x.limbs), len(x.limbs)+1)
	var carry uint64
	for i, l := range x.limbs {
		cur := uint64(l)*uint64(m) + carry
		out[i] = uint32(cur % limbBase)
		carry = cur / limbBase
	}
	if carry > 0 {
		out = append(out, uint32(carry))
	}
	return makeInt(out, x.neg)
}

// QuoFloor returns floor(x / y) for a positive divisor, matching the
// rounding the term recurrences assume: the quotient of a negative dividend
// rounds toward negative infinity. Panics if y <= 0.
func (x *Int) QuoFloor(y *Int) *Int {
	if y.Sign() <= 0 {
		panic("bignum: QuoFloor requires a positive divisor")
	}
	q, r := quoRemMag(x.limbs, y.limbs)
	if !x.neg {
		return makeInt(q, false)
	}
	if len(r) != 0 {
		q = addMag(q, []uint32{1})
	}
	return makeInt(q, true)
}

// IsInt64 reports whether x fits in an int64.
func (x *Int) IsInt64() bool {
	_, ok := x.int64()
	return ok
}

// Int64 returns the int64 value of x. If x does not fit in an int64 the
// result is undefined; use IsInt64 first.
func (x *Int) Int64() int64 {
	v, _ := x.int64()
	return v
}

func (x *Int) int64() (int64, bool) {
	var m uint64
	for i := len(x.limbs) - 1; i >= 0; i-- {
		if m > (^uint64(0)-uint64(x.limbs[i]))/limbBase {
			return 0, false
		}
		m = m*limbBase + uint64(x.limbs[i])
	}
	if x.neg {
		if m > 1<<63 {
			return 0, false
		}
		if m == 1<<63 {
			return -1 << 63, true
		}
		return -int64(m), true
	}
	if m > 1<<63-1 {
		return 0, false
	}
	return int64(m), true
}

// DecimalLen returns the number of decimal digits in |x|. Zero has length 1.
func (x *Int) DecimalLen() int {
	if len(x.limbs) == 0 {
		return 1
	}
	top := x.limbs[len(x.limbs)-1]
	n := 0
	for top > 0 {
		n++
		top /= 10
	}
	return (len(x.limbs)-1)*limbDigits + n
}

// String returns the decimal representation of x.
func (x *Int) String() string {
	if len(x.limbs) == 0 {
		return "0"
	}
	var sb strings.Builder
	if x.neg {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, "%d", x.limbs[len(x.limbs)-1])
	for i := len(x.limbs) - 2; i >= 0; i-- {
		fmt.Fprintf(&sb, "%09d", x.limbs[i])
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler. Checkpoint files store
// terms as decimal strings so they stay readable and version-stable.
func (x *Int) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Int) UnmarshalText(b []byte) error {
	v, err := FromString(string(b))
	if err != nil {
		return err
	}
	x.limbs = v.limbs
	x.neg = v.neg
	return nil
}

// makeInt builds an Int from a magnitude and sign, normalizing zero.
func makeInt(limbs []uint32, neg bool) *Int {
	limbs = trimMag(limbs)
	if len(limbs) == 0 {
		return &Int{}
	}
	return &Int{limbs: limbs, neg: neg}
}

func trimMag(limbs []uint32) []uint32 {
	for len(limbs) > 0 && limbs[len(limbs)-1] == 0 {
		limbs = limbs[:len(limbs)-1]
	}
	return limbs
}

func cmpMag(a, b []uint32) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func addMag(a, b []uint32) []uint32 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := make([]uint32, len(a), len(a)+1)
	var carry uint64
	for i := range a {
		s := uint64(a[i]) + carry
		if i < len(b) {
			s += uint64(b[i])
		}
		out[i] = uint32(s % limbBase)
		carry = s / limbBase
	}
	if carry > 0 {
		out = append(out, uint32(carry))
	}
	return out
}

// subMag computes a - b and requires a >= b.
func subMag(a, b []uint32) []uint32 {
	out := make([]uint32, len(a))
	var borrow int64
	for i := range a {
		d := int64(a[i]) - borrow
		if i < len(b) {
			d -= int64(b[i])
		}
		if d < 0 {
			d += limbBase
			borrow = 1
		} else {
			borrow = 0
		}
		out[i] = uint32(d)
	}
	return trimMag(out)
}

func mulMag(a, b []uint32) []uint32 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	acc := make([]uint64, len(a)+len(b))
	for i, ai := range a {
		if ai == 0 {
			continue
		}
		var carry uint64
		for j, bj := range b {
			cur := acc[i+j] + uint64(ai)*uint64(bj) + carry
			acc[i+j] = cur % limbBase
			carry = cur / limbBase
		}
		acc[i+len(b)] += carry
	}
	out := make([]uint32, len(acc))
	for i, v := range acc {
		out[i] = uint32(v)
	}
	return trimMag(out)
}

// quoRemMag divides magnitudes by repeated doubling. The generator only ever
// produces single-digit quotients, so the doubling chain stays short, but the
// routine is correct for arbitrary operands.
func quoRemMag(a, b []uint32) (quo, rem []uint32) {
	if cmpMag(a, b) < 0 {
		rem = make([]uint32, len(a))
		copy(rem, a)
		return nil, trimMag(rem)
	}
	type step struct {
		pow []uint32
		bit []uint32
	}
	var steps []step
	pow := trimMag(append([]uint32(nil), b...))
	bit := []uint32{1}
	for cmpMag(pow, a) <= 0 {
		steps = append(steps, step{pow, bit})
		pow = addMag(pow, pow)
		bit = addMag(bit, bit)
	}
	rem = trimMag(append([]uint32(nil), a...))
	for i := len(steps) - 1; i >= 0; i-- {
		if cmpMag(rem, steps[i].pow) >= 0 {
			rem = subMag(rem, steps[i].pow)
			quo = addMag(quo, steps[i].bit)
		}
	}
	return trimMag(quo), rem
}
