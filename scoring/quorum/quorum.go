// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum is the agreement boundary of the scoring engine.
// Each node reports the content hash of its round prediction; the
// quorum declares consensus only when enough nodes report the same
// hash, and never guesses a winner otherwise.
package quorum

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

var (
	ErrQuorumNotReached = errors.New("quorum: not reached")
	ErrInvalidThreshold = errors.New("quorum: threshold must be in (0, 1]")
	ErrNoReports        = errors.New("quorum: no reports")
	ErrDuplicateReport  = errors.New("quorum: duplicate report from validator")
)

// Report is one node's claim about the round outcome.
type Report struct {
	ValidatorID    ids.NodeID
	PredictionHash ids.ID
	Prediction     fixed.Val
}

// Result is a reached consensus round.
type Result struct {
	Prediction     fixed.Val
	AgreementRatio fixed.Val
	ConsensusHash  ids.ID
	Reached        bool
}

// NotReachedError carries the full vote distribution of a failed
// round for diagnostics. It unwraps to ErrQuorumNotReached.
type NotReachedError struct {
	Total  int
	Needed int
	Votes  map[ids.ID]int
}

func (e *NotReachedError) Error() string {
	return fmt.Sprintf("quorum: not reached: best of %d vote groups below %d/%d",
		len(e.Votes), e.Needed, e.Total)
}

func (e *NotReachedError) Unwrap() error {
	return ErrQuorumNotReached
}

// Decide groups reports by prediction hash and declares consensus for
// the hash reported by at least ceil(total * threshold) validators.
// The count comparison is pure integer arithmetic. Each validator may
// report exactly once.
func Decide(reports []Report, threshold fixed.Val) (Result, error) {
	if threshold.Cmp(fixed.Zero) <= 0 || threshold.Cmp(fixed.One) > 0 {
		return Result{}, fmt.Errorf("%w: got %s", ErrInvalidThreshold, threshold)
	}
	if len(reports) == 0 {
		return Result{}, ErrNoReports
	}

	votes := make(map[ids.ID]int, len(reports))
	predictions := make(map[ids.ID]fixed.Val, len(reports))
	seen := make(map[ids.NodeID]struct{}, len(reports))
	for _, r := range reports {
		if _, ok := seen[r.ValidatorID]; ok {
			return Result{}, fmt.Errorf("%w: %s", ErrDuplicateReport, r.ValidatorID)
		}
		seen[r.ValidatorID] = struct{}{}
		votes[r.PredictionHash]++
		if _, ok := predictions[r.PredictionHash]; !ok {
			predictions[r.PredictionHash] = r.Prediction
		}
	}

	total := len(reports)
	needed := neededVotes(total, threshold)

	// Pick the largest vote group; exact ties resolve to the smaller
	// hash so every node picks the same group.
	var (
		winner      ids.ID
		winnerVotes int
	)
	for hash, n := range votes {
		switch {
		case n > winnerVotes:
			winner, winnerVotes = hash, n
		case n == winnerVotes && bytes.Compare(hash[:], winner[:]) < 0:
			winner = hash
		}
	}

	if winnerVotes < needed {
		return Result{}, &NotReachedError{
			Total:  total,
			Needed: needed,
			Votes:  votes,
		}
	}

	ratio, err := fixed.FromRatio(int64(winnerVotes), int64(total))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Prediction:     predictions[winner],
		AgreementRatio: ratio,
		ConsensusHash:  winner,
		Reached:        true,
	}, nil
}

// neededVotes computes ceil(total * threshold) without leaving
// integer arithmetic.
func neededVotes(total int, threshold fixed.Val) int {
	num := int64(total) * threshold.Raw()
	needed := num / fixed.Scale
	if num%fixed.Scale != 0 {
		needed++
	}
	return int(needed)
}
