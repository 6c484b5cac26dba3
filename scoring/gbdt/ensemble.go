// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gbdt

import (
	"fmt"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

// Ensemble is an ordered set of trees plus aggregation metadata. Once
// verified it is immutable and safe for any number of concurrent
// Predict calls.
type Ensemble struct {
	Trees             []Tree
	FeatureCount      uint32
	LearningRate      fixed.Val
	FeatureImportance []fixed.Val
}

// Verify checks every structural invariant of the ensemble. A model
// that fails Verify must never reach the scoring path.
func (e *Ensemble) Verify() error {
	if e.FeatureCount == 0 {
		return fmt.Errorf("%w: zero feature count", ErrInvalidStructure)
	}
	if uint32(len(e.FeatureImportance)) != e.FeatureCount {
		return fmt.Errorf("%w: %d importance values for %d features",
			ErrInvalidStructure, len(e.FeatureImportance), e.FeatureCount)
	}
	for i := range e.Trees {
		if err := e.Trees[i].Verify(e.FeatureCount); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Predict averages the traversal results of all trees with saturating
// fixed-point arithmetic. An empty ensemble returns zero. The result
// is a pure function of (ensemble, features).
func (e *Ensemble) Predict(features []fixed.Val) (fixed.Val, error) {
	if uint32(len(features)) != e.FeatureCount {
		return fixed.Zero, fmt.Errorf("%w: got %d features, want %d",
			ErrInvalidStructure, len(features), e.FeatureCount)
	}
	if len(e.Trees) == 0 {
		return fixed.Zero, nil
	}

	sum := fixed.Zero
	for i := range e.Trees {
		leaf, err := e.Trees[i].Traverse(features)
		if err != nil {
			return fixed.Zero, err
		}
		sum = sum.Add(leaf)
	}

	// Divide by the tree count expressed in fixed-point units. The
	// divisor is never zero here, so Div cannot fail.
	divisor := fixed.FromInt(int64(len(e.Trees)))
	avg, err := sum.Div(divisor)
	if err != nil {
		return fixed.Zero, err
	}
	return avg, nil
}

// NumNodes counts nodes across all trees.
func (e *Ensemble) NumNodes() int {
	total := 0
	for i := range e.Trees {
		total += len(e.Trees[i].Nodes)
	}
	return total
}

// MaxDepth reports the deepest tree in the ensemble.
func (e *Ensemble) MaxDepth() int {
	max := 0
	for i := range e.Trees {
		if d := e.Trees[i].MaxDepth(); d > max {
			max = d
		}
	}
	return max
}
