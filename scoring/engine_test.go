// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scoring

import (
	"context"
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/dmrl789/IPPAN-sub009/scoring/config"
	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
	"github.com/dmrl789/IPPAN-sub009/scoring/quorum"
	"github.com/dmrl789/IPPAN-sub009/scoring/registry"
	"github.com/dmrl789/IPPAN-sub009/scoring/scorer"
)

// testModel scores on uptime alone: above 0.5 scores 0.9, else 0.1.
func testModel() *gbdt.Ensemble {
	importance := make([]fixed.Val, scorer.FeatureCount)
	importance[0] = fixed.One
	return &gbdt.Ensemble{
		Trees: []gbdt.Tree{
			{Nodes: []gbdt.Node{
				gbdt.Split(0, fixed.FromRaw(500_000), 1, 2),
				gbdt.Leaf(fixed.FromRaw(100_000)),
				gbdt.Leaf(fixed.FromRaw(900_000)),
			}},
		},
		FeatureCount:      scorer.FeatureCount,
		LearningRate:      fixed.FromRaw(100_000),
		FeatureImportance: importance,
	}
}

func newTestEngine(t *testing.T) (*Engine, ids.ID) {
	t.Helper()
	require := require.New(t)

	reg, err := registry.New(memdb.New(), log.NoLog{}, nil)
	require.NoError(err)
	modelID, err := reg.Register(testModel(), "uptime-scorer", "1.0.0")
	require.NoError(err)

	cfg := config.DefaultConfig()
	cfg.PinnedModelHash = modelID
	cfg.ShadowSetSize = 2

	engine, err := NewEngine(cfg, reg, log.NoLog{}, nil)
	require.NoError(err)
	return engine, modelID
}

func roundInputs() (map[ids.NodeID]scorer.ValidatorMetrics, map[ids.NodeID]uint64) {
	metrics := map[ids.NodeID]scorer.ValidatorMetrics{
		{0x01}: {UptimeRatio: fixed.FromRaw(990_000)},
		{0x02}: {UptimeRatio: fixed.FromRaw(700_000)},
		{0x03}: {UptimeRatio: fixed.FromRaw(200_000)},
	}
	base := map[ids.NodeID]uint64{
		{0x01}: 1000,
		{0x02}: 1000,
		{0x03}: 1000,
	}
	return metrics, base
}

func TestEngineRefusesWithoutModel(t *testing.T) {
	require := require.New(t)
	engine, _ := newTestEngine(t)

	metrics, base := roundInputs()
	_, err := engine.RunRound(context.Background(), metrics, base)
	require.ErrorIs(err, ErrNoModel)
}

func TestEngineStartRejectsUnknownPin(t *testing.T) {
	require := require.New(t)

	reg, err := registry.New(memdb.New(), log.NoLog{}, nil)
	require.NoError(err)

	cfg := config.DefaultConfig()
	cfg.PinnedModelHash = ids.ID{0xde, 0xad}
	engine, err := NewEngine(cfg, reg, log.NoLog{}, nil)
	require.NoError(err)

	require.ErrorIs(engine.Start(context.Background()), registry.ErrMissingFile)
}

func TestEngineRound(t *testing.T) {
	require := require.New(t)
	engine, modelID := newTestEngine(t)
	require.NoError(engine.Start(context.Background()))

	metrics, base := roundInputs()
	result, err := engine.RunRound(context.Background(), metrics, base)
	require.NoError(err)

	require.Equal(modelID, result.ModelID)
	require.Len(result.Scores, 3)
	require.Len(result.ShadowSet, 2)

	// Validators 1 and 2 are above the uptime split and rank ahead of
	// validator 3; the 0.9 tie breaks on validator ID.
	require.Equal(ids.NodeID{0x01}, result.ShadowSet[0].ValidatorID)
	require.Equal(ids.NodeID{0x02}, result.ShadowSet[1].ValidatorID)

	total := uint64(0)
	for _, r := range result.AdjustedRewards {
		total += r
	}
	require.Equal(uint64(3000), total)

	// Mean of 0.9, 0.9, 0.1.
	require.Equal(int64(633_333), result.Prediction.Raw())
	require.NotEqual(ids.Empty, result.PredictionHash)
}

func TestEngineRoundDeterministic(t *testing.T) {
	require := require.New(t)
	engine, _ := newTestEngine(t)
	require.NoError(engine.Start(context.Background()))

	metrics, base := roundInputs()
	first, err := engine.RunRound(context.Background(), metrics, base)
	require.NoError(err)

	for i := 0; i < 100; i++ {
		again, err := engine.RunRound(context.Background(), metrics, base)
		require.NoError(err)
		require.Equal(first, again)
	}
}

// Two nodes sharing the registered model reach quorum on the same
// prediction hash without exchanging anything but their reports.
func TestEngineQuorumAcrossNodes(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	reg, err := registry.New(db, log.NoLog{}, nil)
	require.NoError(err)
	modelID, err := reg.Register(testModel(), "m", "1")
	require.NoError(err)

	cfg := config.DefaultConfig()
	cfg.PinnedModelHash = modelID
	cfg.ShadowSetSize = 2

	metrics, base := roundInputs()
	reports := make([]quorum.Report, 0, 3)
	for i := byte(1); i <= 3; i++ {
		engine, err := NewEngine(cfg, reg, log.NoLog{}, nil)
		require.NoError(err)
		require.NoError(engine.Start(context.Background()))

		result, err := engine.RunRound(context.Background(), metrics, base)
		require.NoError(err)
		reports = append(reports, result.Report(ids.NodeID{i}))
	}

	decision, err := quorum.Decide(reports, cfg.QuorumThreshold)
	require.NoError(err)
	require.True(decision.Reached)
	require.Equal(fixed.One, decision.AgreementRatio)
	require.Equal(reports[0].PredictionHash, decision.ConsensusHash)
}

func TestEngineRotate(t *testing.T) {
	require := require.New(t)

	reg, err := registry.New(memdb.New(), log.NoLog{}, nil)
	require.NoError(err)
	firstID, err := reg.Register(testModel(), "m", "1")
	require.NoError(err)

	second := testModel()
	second.Trees[0].Nodes[1] = gbdt.Leaf(fixed.FromRaw(500_000))
	secondID, err := reg.Register(second, "m", "2")
	require.NoError(err)
	require.NotEqual(firstID, secondID)

	cfg := config.DefaultConfig()
	cfg.PinnedModelHash = firstID
	engine, err := NewEngine(cfg, reg, log.NoLog{}, nil)
	require.NoError(err)
	require.NoError(engine.Start(context.Background()))

	metrics, base := roundInputs()
	before, err := engine.RunRound(context.Background(), metrics, base)
	require.NoError(err)
	require.Equal(firstID, before.ModelID)

	require.NoError(engine.Rotate(context.Background(), secondID))
	after, err := engine.RunRound(context.Background(), metrics, base)
	require.NoError(err)
	require.Equal(secondID, after.ModelID)
	require.NotEqual(before.PredictionHash, after.PredictionHash)
}
