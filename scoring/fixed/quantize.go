// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/luxfi/crypto/hash"
)

// RoundingMode selects how the Quantizer resolves fractional raw units.
type RoundingMode uint8

const (
	// RoundTruncate drops the sub-micro fraction toward zero. Default.
	RoundTruncate RoundingMode = iota

	// RoundStochastic rounds up with probability equal to the dropped
	// fraction. The decision is a pure function of the input bits and
	// the configured seed, never of wall-clock time or OS entropy, so
	// every host quantizes identically.
	RoundStochastic
)

var ErrNotFinite = errors.New("fixed: value is not finite or out of range")

// Quantizer converts external floating-point values into Vals. This is
// a one-way authoring-time ingestion step: quantized models are stored
// and shipped as raw integers, and inference never touches a float.
type Quantizer struct {
	mode RoundingMode
	seed uint64
}

func NewQuantizer(mode RoundingMode, seed uint64) Quantizer {
	return Quantizer{mode: mode, seed: seed}
}

// Quantize converts f to a Val. NaN, infinities, and values whose
// scaled magnitude exceeds the int64 range are rejected.
func (q Quantizer) Quantize(f float64) (Val, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, ErrNotFinite
	}
	scaled := f * float64(Scale)
	if scaled >= float64(math.MaxInt64) || scaled <= float64(math.MinInt64) {
		return Zero, ErrNotFinite
	}

	truncated := math.Trunc(scaled)
	raw := int64(truncated)
	if q.mode != RoundStochastic {
		return Val(raw), nil
	}

	frac := math.Abs(scaled - truncated)
	if frac == 0 {
		return Val(raw), nil
	}
	if q.roundsUp(f, frac) {
		if scaled < 0 {
			raw--
		} else {
			raw++
		}
	}
	return Val(raw), nil
}

// roundsUp derives a deterministic threshold from (seed, value bits)
// and compares it against the dropped fraction.
func (q Quantizer) roundsUp(f, frac float64) bool {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], q.seed)
	binary.BigEndian.PutUint64(buf[8:], math.Float64bits(f))
	digest := hash.ComputeHash256(buf[:])
	threshold := binary.BigEndian.Uint64(digest[:8])
	// frac is in (0, 1); map it onto the full uint64 range.
	return uint64(frac*math.MaxUint64) > threshold
}
