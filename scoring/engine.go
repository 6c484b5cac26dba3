// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scoring wires the model registry, scorer, selector, and
// reward weighter into the per-round entry point used by the consensus
// scheduler.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/dmrl789/IPPAN-sub009/scoring/codec"
	"github.com/dmrl789/IPPAN-sub009/scoring/config"
	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/quorum"
	"github.com/dmrl789/IPPAN-sub009/scoring/registry"
	"github.com/dmrl789/IPPAN-sub009/scoring/rewards"
	"github.com/dmrl789/IPPAN-sub009/scoring/scorer"
	"github.com/dmrl789/IPPAN-sub009/scoring/selector"
	"github.com/dmrl789/IPPAN-sub009/utils/wrappers"
)

// ErrNoModel means no verified model is installed. The engine refuses
// to score rather than fall back to anything unverified.
var ErrNoModel = errors.New("scoring: no verified model installed")

// Engine runs one scoring round: metrics in, scores, shadow set,
// adjusted rewards, and a prediction hash out. All round outputs are
// pure functions of the installed model and the round inputs.
type Engine struct {
	cfg      config.Config
	handle   *registry.Handle
	weighter *rewards.Weighter
	log      log.Logger
	metrics  *engineMetrics
}

// RoundResult is the output of one scoring round.
type RoundResult struct {
	ModelID         ids.ID
	Scores          []scorer.ValidatorScore
	ShadowSet       []scorer.ValidatorScore
	AdjustedRewards map[ids.NodeID]uint64

	// Prediction is the mean score of the round; PredictionHash is
	// the content hash of the canonically encoded score vector. Both
	// are what a node reports to the quorum.
	Prediction     fixed.Val
	PredictionHash ids.ID
}

// NewEngine validates cfg and builds an engine bound to reg. The
// registerer may be nil for metric-free use.
func NewEngine(
	cfg config.Config,
	reg *registry.Registry,
	logger log.Logger,
	registerer metric.Registerer,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	weighter, err := rewards.NewWeighter(cfg.MinMultiplier, cfg.MaxMultiplier)
	if err != nil {
		return nil, err
	}
	m, err := newEngineMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		handle:   reg.NewHandle(),
		weighter: weighter,
		log:      logger,
		metrics:  m,
	}, nil
}

// Start loads and installs the pinned model. It must succeed before
// the first round; a pin that cannot be verified aborts startup.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.handle.PinnedLoad(ctx, e.cfg.PinnedModelHash); err != nil {
		return fmt.Errorf("loading pinned model: %w", err)
	}
	return nil
}

// Rotate atomically switches the engine to another registered model.
// Rounds already in flight finish on the model they started with.
func (e *Engine) Rotate(ctx context.Context, id ids.ID) error {
	return e.handle.Reload(ctx, id)
}

// RunRound scores every validator, selects the shadow set, and
// reweights the base rewards. The compute path has no cancellation
// points; ctx is only consulted before work begins.
func (e *Engine) RunRound(
	ctx context.Context,
	metricsByValidator map[ids.NodeID]scorer.ValidatorMetrics,
	baseRewards map[ids.NodeID]uint64,
) (*RoundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ensemble, modelID, ok := e.handle.Current()
	if !ok {
		e.metrics.roundFailures.Inc()
		return nil, ErrNoModel
	}

	scores, err := scorer.ScoreAll(ensemble, metricsByValidator)
	if err != nil {
		e.metrics.roundFailures.Inc()
		return nil, fmt.Errorf("scoring validators: %w", err)
	}

	shadowSet, err := selector.Select(scores, e.cfg.ShadowSetSize)
	if err != nil {
		e.metrics.roundFailures.Inc()
		return nil, err
	}

	adjusted, err := e.weighter.Weight(scores, baseRewards)
	if err != nil {
		e.metrics.roundFailures.Inc()
		return nil, fmt.Errorf("weighting rewards: %w", err)
	}

	prediction, predictionHash, err := roundPrediction(scores)
	if err != nil {
		e.metrics.roundFailures.Inc()
		return nil, err
	}

	e.metrics.rounds.Inc()
	e.metrics.validatorsScored.Set(float64(len(scores)))
	e.log.Info("scoring round complete",
		log.String("model", codec.HashHex(modelID)),
		log.Int("validators", len(scores)),
		log.Int("shadowSet", len(shadowSet)),
		log.String("predictionHash", codec.HashHex(predictionHash)),
	)

	return &RoundResult{
		ModelID:         modelID,
		Scores:          scores,
		ShadowSet:       shadowSet,
		AdjustedRewards: adjusted,
		Prediction:      prediction,
		PredictionHash:  predictionHash,
	}, nil
}

// Report builds this node's quorum report from a round result.
func (r *RoundResult) Report(nodeID ids.NodeID) quorum.Report {
	return quorum.Report{
		ValidatorID:    nodeID,
		PredictionHash: r.PredictionHash,
		Prediction:     r.Prediction,
	}
}

// roundPrediction returns the mean score and the content hash of the
// canonically encoded score vector. ScoreAll already orders scores by
// validator ID, so the encoding is reproducible across nodes.
func roundPrediction(scores []scorer.ValidatorScore) (fixed.Val, ids.ID, error) {
	sum := fixed.Zero
	p := wrappers.Packer{MaxSize: codec.MaxModelSize}
	p.PackShort(codec.CodecVersion)
	p.PackInt(uint32(len(scores)))
	for _, s := range scores {
		p.PackFixedBytes(s.ValidatorID[:])
		p.PackInt64(s.Score.Raw())
		sum = sum.Add(s.Score)
	}
	if p.Errored() {
		return fixed.Zero, ids.Empty, p.Err
	}

	prediction := fixed.Zero
	if len(scores) > 0 {
		var err error
		prediction, err = sum.DivInt(int64(len(scores)))
		if err != nil {
			return fixed.Zero, ids.Empty, err
		}
	}
	return prediction, codec.Hash(p.Bytes), nil
}
