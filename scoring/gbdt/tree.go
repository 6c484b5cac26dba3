// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gbdt implements the gradient-boosted decision tree ensemble
// used for validator scoring. Trees are flat node arenas referencing
// children by index; inference is a pure function of the ensemble and
// the feature vector, computed entirely in fixed-point arithmetic.
package gbdt

import (
	"errors"
	"fmt"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

var ErrInvalidStructure = errors.New("gbdt: invalid model structure")

// Node is one entry of a tree's arena. Leaf nodes carry Value and
// ignore the split fields; internal nodes reference their children by
// arena index. Child indexes are strictly greater than the parent
// index, which rules out cycles by construction.
type Node struct {
	FeatureIndex uint32
	Threshold    fixed.Val
	Left         uint32
	Right        uint32
	Leaf         bool
	Value        fixed.Val
}

// Tree is a single binary decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Leaf returns a leaf node holding value.
func Leaf(value fixed.Val) Node {
	return Node{Leaf: true, Value: value}
}

// Split returns an internal node comparing features[featureIndex]
// against threshold.
func Split(featureIndex uint32, threshold fixed.Val, left, right uint32) Node {
	return Node{
		FeatureIndex: featureIndex,
		Threshold:    threshold,
		Left:         left,
		Right:        right,
	}
}

// Verify checks the tree's structural invariants against the expected
// feature count.
func (t *Tree) Verify(featureCount uint32) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidStructure)
	}
	numNodes := uint32(len(t.Nodes))
	for i, node := range t.Nodes {
		if node.Leaf {
			continue
		}
		if node.FeatureIndex >= featureCount {
			return fmt.Errorf("%w: node %d references feature %d of %d",
				ErrInvalidStructure, i, node.FeatureIndex, featureCount)
		}
		if node.Left >= numNodes || node.Right >= numNodes {
			return fmt.Errorf("%w: node %d child out of range", ErrInvalidStructure, i)
		}
		if node.Left <= uint32(i) || node.Right <= uint32(i) {
			return fmt.Errorf("%w: node %d child does not advance", ErrInvalidStructure, i)
		}
	}
	return nil
}

// Traverse walks the tree from the root. At each internal node the
// comparison features[FeatureIndex] <= Threshold selects the left
// child; otherwise the right. This tie convention is frozen by the
// codec version and must never change.
func (t *Tree) Traverse(features []fixed.Val) (fixed.Val, error) {
	idx := uint32(0)
	for {
		if idx >= uint32(len(t.Nodes)) {
			return fixed.Zero, fmt.Errorf("%w: node index %d out of range", ErrInvalidStructure, idx)
		}
		node := &t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.FeatureIndex >= uint32(len(features)) {
			return fixed.Zero, fmt.Errorf("%w: feature index %d out of range",
				ErrInvalidStructure, node.FeatureIndex)
		}
		if features[node.FeatureIndex].Cmp(node.Threshold) <= 0 {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// MaxDepth reports the longest root-to-leaf path. Used for model
// stats; not on the inference path.
func (t *Tree) MaxDepth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	depths := make([]int, len(t.Nodes))
	depths[0] = 1
	max := 1
	for i, node := range t.Nodes {
		if node.Leaf || depths[i] == 0 {
			continue
		}
		for _, child := range []uint32{node.Left, node.Right} {
			if int(child) < len(depths) && int(child) > i {
				depths[child] = depths[i] + 1
				if depths[child] > max {
					max = depths[child]
				}
			}
		}
	}
	return max
}
