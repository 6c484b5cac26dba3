// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package selector

import (
	"math/rand"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/scorer"
)

func score(id byte, v int64) scorer.ValidatorScore {
	return scorer.ValidatorScore{
		ValidatorID: ids.NodeID{id},
		Score:       fixed.FromInt(v),
	}
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(nil, 3)
	require.ErrorIs(t, err, ErrEmptyValidatorSet)
}

func TestSelectRanking(t *testing.T) {
	require := require.New(t)

	scores := []scorer.ValidatorScore{
		score(0x05, 60),
		score(0x04, 70),
		score(0x03, 80),
		score(0x02, 80),
		score(0x01, 90),
	}

	selected, err := Select(scores, 3)
	require.NoError(err)
	require.Len(selected, 3)
	require.Equal(ids.NodeID{0x01}, selected[0].ValidatorID)
	// The two 80s are tied; the lower validator ID ranks first.
	require.Equal(ids.NodeID{0x02}, selected[1].ValidatorID)
	require.Equal(ids.NodeID{0x03}, selected[2].ValidatorID)
}

func TestSelectPermutationInvariant(t *testing.T) {
	require := require.New(t)

	scores := []scorer.ValidatorScore{
		score(0x01, 90),
		score(0x02, 80),
		score(0x03, 80),
		score(0x04, 70),
		score(0x05, 60),
	}

	want, err := Select(scores, 3)
	require.NoError(err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		shuffled := make([]scorer.ValidatorScore, len(scores))
		copy(shuffled, scores)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := Select(shuffled, 3)
		require.NoError(err)
		require.Equal(want, got)
	}
}

func TestSelectKLargerThanSet(t *testing.T) {
	require := require.New(t)

	scores := []scorer.ValidatorScore{
		score(0x02, 10),
		score(0x01, 20),
	}
	selected, err := Select(scores, 10)
	require.NoError(err)
	require.Len(selected, 2)
	require.Equal(ids.NodeID{0x01}, selected[0].ValidatorID)
	require.Equal(ids.NodeID{0x02}, selected[1].ValidatorID)
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	require := require.New(t)

	scores := []scorer.ValidatorScore{
		score(0x02, 10),
		score(0x01, 20),
	}
	_, err := Select(scores, 1)
	require.NoError(err)
	require.Equal(ids.NodeID{0x02}, scores[0].ValidatorID)
	require.Equal(ids.NodeID{0x01}, scores[1].ValidatorID)
}
