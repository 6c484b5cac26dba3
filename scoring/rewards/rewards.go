// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rewards converts validator scores into reward multipliers
// and renormalizes so the total emitted reward is conserved exactly.
// Every step is integer arithmetic; the adjusted rewards are a pure
// function of (scores, base rewards, multiplier bounds).
package rewards

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/utils"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/scorer"
	safemath "github.com/dmrl789/IPPAN-sub009/utils/math"
)

const (
	// Default multiplier bounds: 0.8x for the lowest score in a batch,
	// 1.2x for the highest.
	DefaultMinMultiplier = fixed.Val(800_000)
	DefaultMaxMultiplier = fixed.Val(1_200_000)
)

var (
	ErrEmptyValidatorSet = errors.New("rewards: empty validator set")
	ErrRewardSetMismatch = errors.New("rewards: score and reward sets differ")
	ErrInvalidBounds     = errors.New("rewards: invalid multiplier bounds")
)

// Weighter maps scores into the configured multiplier range.
type Weighter struct {
	min fixed.Val
	max fixed.Val
}

// NewWeighter validates the multiplier bounds. Both must be positive
// and min must not exceed max.
func NewWeighter(min, max fixed.Val) (*Weighter, error) {
	if min.Cmp(fixed.Zero) <= 0 {
		return nil, fmt.Errorf("%w: min %s not positive", ErrInvalidBounds, min)
	}
	if min.Cmp(max) > 0 {
		return nil, fmt.Errorf("%w: min %s above max %s", ErrInvalidBounds, min, max)
	}
	return &Weighter{min: min, max: max}, nil
}

// NewDefaultWeighter returns a weighter with the 0.8x/1.2x bounds.
func NewDefaultWeighter() *Weighter {
	return &Weighter{min: DefaultMinMultiplier, max: DefaultMaxMultiplier}
}

// Multiplier linearly rescales score against the batch's [lo, hi]
// score range into the configured multiplier range. When every score
// in the batch is equal there is no spread to rescale; each validator
// gets the midpoint.
func (w *Weighter) Multiplier(score, lo, hi fixed.Val) fixed.Val {
	if lo.Cmp(hi) == 0 {
		return fixed.FromRaw((w.min.Raw() + w.max.Raw()) / 2)
	}
	// ratio in [0, 1]; the divisor is nonzero because lo != hi.
	ratio, err := score.Sub(lo).Div(hi.Sub(lo))
	if err != nil {
		return w.min
	}
	return w.min.Add(w.max.Sub(w.min).Mul(ratio))
}

// Weight maps each validator's base reward through its score
// multiplier and renormalizes so that the adjusted rewards sum to
// exactly the base total. The integer remainder left by flooring is
// handed out one unit at a time in ranked order, highest score first
// with the validator ID breaking exact ties.
func (w *Weighter) Weight(
	scores []scorer.ValidatorScore,
	baseRewards map[ids.NodeID]uint64,
) (map[ids.NodeID]uint64, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyValidatorSet
	}
	if len(scores) != len(baseRewards) {
		return nil, fmt.Errorf("%w: %d scores, %d rewards", ErrRewardSetMismatch, len(scores), len(baseRewards))
	}

	lo, hi := scores[0].Score, scores[0].Score
	totalBase := uint64(0)
	for _, s := range scores {
		if _, ok := baseRewards[s.ValidatorID]; !ok {
			return nil, fmt.Errorf("%w: no base reward for %s", ErrRewardSetMismatch, s.ValidatorID)
		}
		if s.Score.Cmp(lo) < 0 {
			lo = s.Score
		}
		if s.Score.Cmp(hi) > 0 {
			hi = s.Score
		}
		var err error
		totalBase, err = safemath.Add(totalBase, baseRewards[s.ValidatorID])
		if err != nil {
			return nil, fmt.Errorf("total base reward: %w", err)
		}
	}

	ranked := make([]scorer.ValidatorScore, len(scores))
	copy(ranked, scores)
	utils.Sort(ranked)

	// weighted_i = base_i * multiplier_i in raw units; the adjusted
	// floor is totalBase * weighted_i / sum(weighted). Intermediate
	// products exceed 64 bits, so they are carried in uint256.
	weighted := make([]*uint256.Int, len(ranked))
	totalWeighted := new(uint256.Int)
	for i, s := range ranked {
		mult := w.Multiplier(s.Score, lo, hi)
		wi := new(uint256.Int).SetUint64(baseRewards[s.ValidatorID])
		wi.Mul(wi, new(uint256.Int).SetUint64(uint64(mult.Raw())))
		weighted[i] = wi
		totalWeighted.Add(totalWeighted, wi)
	}

	adjusted := make(map[ids.NodeID]uint64, len(ranked))
	if totalWeighted.IsZero() {
		// Multipliers are strictly positive, so this means every base
		// reward is zero.
		for _, s := range ranked {
			adjusted[s.ValidatorID] = 0
		}
		return adjusted, nil
	}

	distributed := uint64(0)
	total256 := new(uint256.Int).SetUint64(totalBase)
	for i, s := range ranked {
		share := new(uint256.Int).Mul(total256, weighted[i])
		share.Div(share, totalWeighted)
		floor := share.Uint64()
		adjusted[s.ValidatorID] = floor
		distributed += floor
	}

	// The flooring shortfall is strictly less than the validator
	// count; hand one unit to each of the top-ranked validators.
	remainder := totalBase - distributed
	for i := 0; remainder > 0; i++ {
		adjusted[ranked[i].ValidatorID]++
		remainder--
	}
	return adjusted, nil
}
