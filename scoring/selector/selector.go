// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package selector ranks validators by score into the shadow-verifier
// set. The ordering is total, so independent nodes converge on the
// identical set without exchanging any message.
package selector

import (
	"errors"

	"github.com/luxfi/utils"

	"github.com/dmrl789/IPPAN-sub009/scoring/scorer"
)

var ErrEmptyValidatorSet = errors.New("selector: empty validator set")

// Select returns the top k validators under ValidatorScore's ranking
// order. If k is at least the input size the whole ranked set is
// returned. The input slice is not modified; output is invariant
// under permutation of the input.
func Select(scores []scorer.ValidatorScore, k int) ([]scorer.ValidatorScore, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyValidatorSet
	}

	ranked := make([]scorer.ValidatorScore, len(scores))
	copy(ranked, scores)
	utils.Sort(ranked)

	if k >= len(ranked) {
		return ranked, nil
	}
	return ranked[:k], nil
}
