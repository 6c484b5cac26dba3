// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

func report(id byte, hash byte, prediction int64) Report {
	return Report{
		ValidatorID:    ids.NodeID{id},
		PredictionHash: ids.ID{hash},
		Prediction:     fixed.FromRaw(prediction),
	}
}

func TestDecideReached(t *testing.T) {
	require := require.New(t)

	reports := []Report{
		report(0x01, 0xaa, 750_000),
		report(0x02, 0xaa, 750_000),
		report(0x03, 0xbb, 100_000),
	}

	// 3 validators at 2/3 need ceil(2) = 2 matching votes.
	threshold, err := fixed.FromRatio(2, 3)
	require.NoError(err)

	result, err := Decide(reports, threshold)
	require.NoError(err)
	require.True(result.Reached)
	require.Equal(ids.ID{0xaa}, result.ConsensusHash)
	require.Equal(int64(750_000), result.Prediction.Raw())

	wantRatio, err := fixed.FromRatio(2, 3)
	require.NoError(err)
	require.Equal(wantRatio, result.AgreementRatio)
}

func TestDecideNotReached(t *testing.T) {
	require := require.New(t)

	reports := []Report{
		report(0x01, 0xaa, 1),
		report(0x02, 0xbb, 2),
		report(0x03, 0xcc, 3),
	}
	threshold, err := fixed.FromRatio(2, 3)
	require.NoError(err)

	_, err = Decide(reports, threshold)
	require.ErrorIs(err, ErrQuorumNotReached)

	var notReached *NotReachedError
	require.ErrorAs(err, &notReached)
	require.Equal(3, notReached.Total)
	require.Equal(2, notReached.Needed)
	require.Len(notReached.Votes, 3)
	require.Equal(1, notReached.Votes[ids.ID{0xaa}])
}

func TestDecideUnanimousThreshold(t *testing.T) {
	require := require.New(t)

	reports := []Report{
		report(0x01, 0xaa, 5),
		report(0x02, 0xaa, 5),
		report(0x03, 0xbb, 6),
	}

	_, err := Decide(reports, fixed.One)
	require.ErrorIs(err, ErrQuorumNotReached)

	reports[2].PredictionHash = ids.ID{0xaa}
	result, err := Decide(reports, fixed.One)
	require.NoError(err)
	require.True(result.Reached)
	require.Equal(fixed.One, result.AgreementRatio)
}

func TestDecideCeilBoundary(t *testing.T) {
	require := require.New(t)

	// 4 validators at 0.51 need ceil(2.04) = 3.
	reports := []Report{
		report(0x01, 0xaa, 1),
		report(0x02, 0xaa, 1),
		report(0x03, 0xbb, 2),
		report(0x04, 0xbb, 2),
	}
	threshold := fixed.FromRaw(510_000)

	_, err := Decide(reports, threshold)
	require.ErrorIs(err, ErrQuorumNotReached)

	reports[3].PredictionHash = ids.ID{0xaa}
	result, err := Decide(reports, threshold)
	require.NoError(err)
	require.Equal(ids.ID{0xaa}, result.ConsensusHash)
}

func TestDecideInvalidThreshold(t *testing.T) {
	require := require.New(t)

	reports := []Report{report(0x01, 0xaa, 1)}

	_, err := Decide(reports, fixed.Zero)
	require.ErrorIs(err, ErrInvalidThreshold)

	_, err = Decide(reports, fixed.FromRaw(-1))
	require.ErrorIs(err, ErrInvalidThreshold)

	_, err = Decide(reports, fixed.FromRaw(fixed.Scale+1))
	require.ErrorIs(err, ErrInvalidThreshold)
}

func TestDecideNoReports(t *testing.T) {
	_, err := Decide(nil, fixed.One)
	require.ErrorIs(t, err, ErrNoReports)
}

func TestDecideDuplicateValidator(t *testing.T) {
	require := require.New(t)

	reports := []Report{
		report(0x01, 0xaa, 1),
		report(0x01, 0xbb, 2),
	}
	_, err := Decide(reports, fixed.One)
	require.ErrorIs(err, ErrDuplicateReport)
}
