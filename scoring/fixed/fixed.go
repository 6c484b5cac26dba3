// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixed implements deterministic scaled-integer arithmetic.
//
// Every numeric value on the scoring path is a Val: a signed 64-bit
// integer holding the real number multiplied by Scale. All operations
// are pure integer arithmetic, so two hosts with different CPU
// architectures always compute bit-identical results. No floating-point
// type appears anywhere on the inference path; floats may only enter
// through the authoring-time Quantizer.
package fixed

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Scale is the global scaling factor: 1 raw unit = 1e-6.
const Scale int64 = 1_000_000

// Val is a fixed-point number stored as value * Scale.
type Val int64

const (
	Zero Val = 0
	One  Val = Val(Scale)

	// MaxVal and MinVal are the saturation bounds.
	MaxVal Val = math.MaxInt64
	MinVal Val = math.MinInt64
)

var (
	ErrDivisionByZero = errors.New("fixed: division by zero")
	ErrOverflow       = errors.New("fixed: arithmetic overflow")
)

// FromRaw interprets raw as already-scaled units.
func FromRaw(raw int64) Val {
	return Val(raw)
}

// FromInt converts whole units, saturating on overflow.
func FromInt(v int64) Val {
	return mulIntSat(Val(v), Scale)
}

// FromRatio returns num/den as a fixed-point value, saturating on
// overflow. A zero denominator returns ErrDivisionByZero.
func FromRatio(num, den int64) (Val, error) {
	if den == 0 {
		return Zero, ErrDivisionByZero
	}
	res, ok := mulDiv(Val(num), Val(Scale), Val(den))
	if !ok {
		return saturate(num < 0 != (den < 0)), nil
	}
	return res, nil
}

// Raw returns the underlying scaled integer.
func (v Val) Raw() int64 {
	return int64(v)
}

// Int truncates toward zero to whole units.
func (v Val) Int() int64 {
	return int64(v) / Scale
}

// Add returns v+o, saturating to MinVal/MaxVal on overflow.
func (v Val) Add(o Val) Val {
	res, err := v.CheckedAdd(o)
	if err != nil {
		return saturate(v < 0)
	}
	return res
}

// Sub returns v-o, saturating on overflow.
func (v Val) Sub(o Val) Val {
	res, err := v.CheckedSub(o)
	if err != nil {
		return saturate(v < 0)
	}
	return res
}

// Mul returns v*o/Scale using a 256-bit intermediate, saturating on
// overflow of the final 64-bit result.
func (v Val) Mul(o Val) Val {
	res, ok := mulDiv(v, o, Val(Scale))
	if !ok {
		return saturate(v < 0 != (o < 0))
	}
	return res
}

// Div returns v*Scale/o using a 256-bit intermediate, saturating on
// overflow. Dividing by a zero-raw value is an error, never a silent
// zero.
func (v Val) Div(o Val) (Val, error) {
	if o == 0 {
		return Zero, ErrDivisionByZero
	}
	res, ok := mulDiv(v, Val(Scale), o)
	if !ok {
		return saturate(v < 0 != (o < 0)), nil
	}
	return res, nil
}

// CheckedAdd returns v+o or ErrOverflow.
func (v Val) CheckedAdd(o Val) (Val, error) {
	res := v + o
	if (res > v) == (o > 0) || o == 0 {
		return res, nil
	}
	return Zero, ErrOverflow
}

// CheckedSub returns v-o or ErrOverflow.
func (v Val) CheckedSub(o Val) (Val, error) {
	res := v - o
	if (res < v) == (o > 0) || o == 0 {
		return res, nil
	}
	return Zero, ErrOverflow
}

// CheckedMul returns v*o/Scale or ErrOverflow.
func (v Val) CheckedMul(o Val) (Val, error) {
	res, ok := mulDiv(v, o, Val(Scale))
	if !ok {
		return Zero, ErrOverflow
	}
	return res, nil
}

// CheckedDiv returns v*Scale/o, ErrDivisionByZero, or ErrOverflow.
func (v Val) CheckedDiv(o Val) (Val, error) {
	if o == 0 {
		return Zero, ErrDivisionByZero
	}
	res, ok := mulDiv(v, Val(Scale), o)
	if !ok {
		return Zero, ErrOverflow
	}
	return res, nil
}

// MulInt multiplies by a plain integer, saturating on overflow.
func (v Val) MulInt(n int64) Val {
	return mulIntSat(v, n)
}

// DivInt divides by a plain integer, truncating toward zero.
func (v Val) DivInt(n int64) (Val, error) {
	if n == 0 {
		return Zero, ErrDivisionByZero
	}
	if v == MinVal && n == -1 {
		return MaxVal, nil
	}
	return v / Val(n), nil
}

// Abs returns the magnitude, saturating MinVal to MaxVal.
func (v Val) Abs() Val {
	if v == MinVal {
		return MaxVal
	}
	if v < 0 {
		return -v
	}
	return v
}

// Neg returns -v, saturating MinVal to MaxVal.
func (v Val) Neg() Val {
	if v == MinVal {
		return MaxVal
	}
	return -v
}

// Cmp compares raw values exactly. There is no epsilon tolerance
// anywhere in the system.
func (v Val) Cmp(o Val) int {
	switch {
	case v < o:
		return -1
	case v > o:
		return 1
	default:
		return 0
	}
}

// String formats the value with a fixed six-digit fraction.
func (v Val) String() string {
	raw := int64(v)
	sign := ""
	if raw < 0 {
		sign = "-"
	}
	mag := magnitude(raw)
	return fmt.Sprintf("%s%d.%06d", sign, mag/uint64(Scale), mag%uint64(Scale))
}

// mulDiv computes a*b/den with a 256-bit intermediate on magnitudes.
// ok is false when the result does not fit in int64 or den is zero.
func mulDiv(a, b, den Val) (Val, bool) {
	if den == 0 {
		return Zero, false
	}
	if a == 0 || b == 0 {
		return Zero, true
	}
	neg := (a < 0) != (b < 0) != (den < 0)

	x := new(uint256.Int).SetUint64(magnitude(int64(a)))
	y := new(uint256.Int).SetUint64(magnitude(int64(b)))
	d := new(uint256.Int).SetUint64(magnitude(int64(den)))
	x.Mul(x, y)
	x.Div(x, d)

	if !x.IsUint64() {
		return Zero, false
	}
	mag := x.Uint64()
	if neg {
		if mag > uint64(math.MaxInt64)+1 {
			return Zero, false
		}
		return Val(-mag), true
	}
	if mag > uint64(math.MaxInt64) {
		return Zero, false
	}
	return Val(mag), true
}

func mulIntSat(v Val, n int64) Val {
	if v == 0 || n == 0 {
		return Zero
	}
	res := int64(v) * n
	if res/n != int64(v) || (v == MinVal && n == -1) {
		return saturate(v < 0 != (n < 0))
	}
	return Val(res)
}

// magnitude returns |v| as uint64, correct for math.MinInt64.
func magnitude(v int64) uint64 {
	u := uint64(v)
	if v < 0 {
		u = ^u + 1
	}
	return u
}

func saturate(negative bool) Val {
	if negative {
		return MinVal
	}
	return MaxVal
}
