// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(memdb.New(), log.NoLog{}, nil)
	require.NoError(t, err)
	return r
}

func testEnsemble() *gbdt.Ensemble {
	return &gbdt.Ensemble{
		Trees: []gbdt.Tree{
			{Nodes: []gbdt.Node{
				gbdt.Split(0, fixed.FromRaw(500_000), 1, 2),
				gbdt.Leaf(fixed.FromRaw(250_000)),
				gbdt.Leaf(fixed.FromRaw(900_000)),
			}},
			{Nodes: []gbdt.Node{
				gbdt.Split(3, fixed.FromRaw(120_000), 1, 2),
				gbdt.Leaf(fixed.One),
				gbdt.Leaf(fixed.FromRaw(400_000)),
			}},
		},
		FeatureCount: 7,
		LearningRate: fixed.FromRaw(100_000),
		FeatureImportance: []fixed.Val{
			fixed.FromRaw(300_000), fixed.FromRaw(200_000), fixed.FromRaw(100_000),
			fixed.FromRaw(150_000), fixed.FromRaw(50_000), fixed.FromRaw(120_000),
			fixed.FromRaw(80_000),
		},
	}
}

func TestRegisterLoadRoundTrip(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	ensemble := testEnsemble()
	id, err := r.Register(ensemble, "validator-scorer", "1.0.0")
	require.NoError(err)
	require.NotEqual(ids.Empty, id)

	loaded, err := r.Load(context.Background(), id)
	require.NoError(err)
	require.Equal(ensemble, loaded)

	manifest, err := r.GetManifest(context.Background(), id)
	require.NoError(err)
	require.Equal(id, manifest.ID)
	require.Equal(id, manifest.ContentHash)
	require.Equal("validator-scorer", manifest.Name)
	require.Equal("1.0.0", manifest.Version)
	require.Equal("gbdt", manifest.ModelType)
}

func TestRegisterRecordsCreationTime(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r.clock.Set(created)

	id, err := r.Register(testEnsemble(), "m", "1")
	require.NoError(err)

	manifest, err := r.GetManifest(context.Background(), id)
	require.NoError(err)
	require.Equal(created.UnixMicro(), manifest.CreatedAt)
}

func TestRegisterDeterministicID(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	first, err := r.Register(testEnsemble(), "a", "1")
	require.NoError(err)
	// Same model content under different metadata maps to the same ID.
	second, err := r.Register(testEnsemble(), "b", "2")
	require.NoError(err)
	require.Equal(first, second)
}

func TestRegisterRejectsInvalidEnsemble(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	bad := testEnsemble()
	bad.Trees[0].Nodes[0].FeatureIndex = 99
	_, err := r.Register(bad, "bad", "1")
	require.ErrorIs(err, gbdt.ErrInvalidStructure)
}

func TestLoadMissingModel(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	_, err := r.Load(context.Background(), ids.ID{1, 2, 3})
	require.ErrorIs(err, ErrMissingFile)
}

func TestLoadCanceledContext(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Load(ctx, ids.ID{1})
	require.Error(err)
}

// Every single-byte corruption of the stored payload must be caught at
// load time. No flip may survive the hash check.
func TestLoadDetectsPayloadCorruption(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	r, err := New(db, log.NoLog{}, nil)
	require.NoError(err)

	id, err := r.Register(testEnsemble(), "m", "1")
	require.NoError(err)

	raw := prefixdb.New(manifestPrefix, db)
	stored, err := raw.Get(id[:])
	require.NoError(err)
	manifest, err := ParseManifest(stored)
	require.NoError(err)

	for i := range manifest.Payload {
		for _, flip := range []byte{0x01, 0x80} {
			corrupted := &Manifest{
				ID:              manifest.ID,
				Name:            manifest.Name,
				Version:         manifest.Version,
				CreatedAt:       manifest.CreatedAt,
				ModelType:       manifest.ModelType,
				Accuracy:        manifest.Accuracy,
				TrainingSamples: manifest.TrainingSamples,
				ContentHash:     manifest.ContentHash,
				Payload:         append([]byte(nil), manifest.Payload...),
			}
			corrupted.Payload[i] ^= flip

			bytes, err := corrupted.Bytes()
			require.NoError(err)
			require.NoError(raw.Put(id[:], bytes))

			_, err = r.Load(context.Background(), id)
			require.ErrorIs(err, ErrCorruptedModel, "payload byte %d flip %#x", i, flip)
		}
	}
}

func TestLoadDetectsIdentityMismatch(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	r, err := New(db, log.NoLog{}, nil)
	require.NoError(err)

	id, err := r.Register(testEnsemble(), "m", "1")
	require.NoError(err)

	// Re-key the manifest under a different ID without rewriting its
	// declared identity.
	raw := prefixdb.New(manifestPrefix, db)
	stored, err := raw.Get(id[:])
	require.NoError(err)
	other := ids.ID{0xff}
	require.NoError(raw.Put(other[:], stored))

	_, err = r.Load(context.Background(), other)
	require.ErrorIs(err, ErrCorruptedModel)
}

func TestHandlePinnedLoadAndReload(t *testing.T) {
	require := require.New(t)
	r := newTestRegistry(t)

	handle := r.NewHandle()
	_, _, ok := handle.Current()
	require.False(ok)

	first := testEnsemble()
	firstID, err := r.Register(first, "m", "1")
	require.NoError(err)
	require.NoError(handle.PinnedLoad(context.Background(), firstID))

	active, activeID, ok := handle.Current()
	require.True(ok)
	require.Equal(firstID, activeID)
	require.Equal(first, active)

	second := testEnsemble()
	second.Trees = second.Trees[:1]
	secondID, err := r.Register(second, "m", "2")
	require.NoError(err)
	require.NotEqual(firstID, secondID)

	// A failed reload must not disturb the active model.
	require.ErrorIs(handle.Reload(context.Background(), ids.ID{0xaa}), ErrMissingFile)
	_, activeID, ok = handle.Current()
	require.True(ok)
	require.Equal(firstID, activeID)

	require.NoError(handle.Reload(context.Background(), secondID))
	active, activeID, ok = handle.Current()
	require.True(ok)
	require.Equal(secondID, activeID)
	require.Equal(second, active)
}
