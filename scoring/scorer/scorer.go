// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scorer turns per-validator metrics into ensemble scores.
// Scoring is stateless: each validator is scored independently, so
// results never depend on input order or on other validators.
package scorer

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/luxfi/ids"
	"github.com/luxfi/utils"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
)

var _ utils.Sortable[ValidatorScore] = ValidatorScore{}

// FeatureCount is the width of the scoring feature vector. The field
// order of ValidatorMetrics is frozen; changing either breaks every
// registered model.
const FeatureCount = 7

// ValidatorMetrics is one round's observed behavior for a validator.
// All fields are fixed-point values.
type ValidatorMetrics struct {
	UptimeRatio       fixed.Val
	ValidatedBlocks   fixed.Val
	MissedBlocks      fixed.Val
	AvgLatency        fixed.Val
	SlashingEvents    fixed.Val
	StakeNormalized   fixed.Val
	PeerReportQuality fixed.Val
}

// FeatureVector flattens the metrics in the frozen feature order.
func (m *ValidatorMetrics) FeatureVector() []fixed.Val {
	return []fixed.Val{
		m.UptimeRatio,
		m.ValidatedBlocks,
		m.MissedBlocks,
		m.AvgLatency,
		m.SlashingEvents,
		m.StakeNormalized,
		m.PeerReportQuality,
	}
}

// ValidatorScore pairs a validator with its ensemble score.
type ValidatorScore struct {
	ValidatorID ids.NodeID
	Score       fixed.Val
}

// Compare orders scores for ranking: higher score first, exact ties
// broken by ascending validator ID bytes. The order is total, so
// every node ranks an identical score set identically.
func (s ValidatorScore) Compare(o ValidatorScore) int {
	if c := cmp.Compare(o.Score.Raw(), s.Score.Raw()); c != 0 {
		return c
	}
	return bytes.Compare(s.ValidatorID[:], o.ValidatorID[:])
}

// Score runs the ensemble over the validator's feature vector.
func Score(ensemble *gbdt.Ensemble, metrics ValidatorMetrics) (fixed.Val, error) {
	return ensemble.Predict(metrics.FeatureVector())
}

// ScoreAll scores every validator in the map. Output is ordered by
// ascending validator ID so it is reproducible regardless of map
// iteration order.
func ScoreAll(ensemble *gbdt.Ensemble, metricsByValidator map[ids.NodeID]ValidatorMetrics) ([]ValidatorScore, error) {
	nodeIDs := make([]ids.NodeID, 0, len(metricsByValidator))
	for nodeID := range metricsByValidator {
		nodeIDs = append(nodeIDs, nodeID)
	}
	slices.SortFunc(nodeIDs, func(a, b ids.NodeID) int {
		return bytes.Compare(a[:], b[:])
	})

	scores := make([]ValidatorScore, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		metrics := metricsByValidator[nodeID]
		score, err := ensemble.Predict(metrics.FeatureVector())
		if err != nil {
			return nil, err
		}
		scores = append(scores, ValidatorScore{
			ValidatorID: nodeID,
			Score:       score,
		})
	}
	return scores, nil
}
