// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry persists hashed model manifests and is the only
// path through which an ensemble may enter the scoring engine. Every
// load recomputes the content hash of the stored payload and compares
// it against the manifest's declared identity, so a caller never
// receives an ensemble that has not been verified against its own ID.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/dmrl789/IPPAN-sub009/scoring/codec"
	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
	"github.com/dmrl789/IPPAN-sub009/utils/timer/mockable"
)

const defaultModelType = "gbdt"

var (
	ErrCorruptedModel       = errors.New("registry: corrupted model")
	ErrMissingFile          = errors.New("registry: model not found")
	ErrIntegrityCheckFailed = errors.New("registry: integrity check failed")
	ErrPinnedHashMismatch   = errors.New("registry: loaded model does not match pinned hash")

	manifestPrefix = []byte("manifest")
)

// Info carries the authoring metadata recorded in a manifest.
type Info struct {
	Name            string
	Version         string
	ModelType       string
	Accuracy        fixed.Val
	TrainingSamples uint64
}

// Registry stores and verifies model manifests on a key/value
// database. Reads are fully concurrent; writes are serialized so a
// reader can never observe a partially written manifest.
type Registry struct {
	db      database.Database
	codec   *codec.Codec
	clock   mockable.Clock
	log     log.Logger
	metrics *registryMetrics

	writeMu sync.Mutex
}

// New wraps db with a manifest registry. The registerer may be nil,
// in which case metrics are no-ops.
func New(db database.Database, logger log.Logger, registerer metric.Registerer) (*Registry, error) {
	c, err := codec.New()
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Registry{
		db:      prefixdb.New(manifestPrefix, db),
		codec:   c,
		log:     logger,
		metrics: m,
	}, nil
}

// Register canonicalizes, hashes, and persists the ensemble under its
// content hash, returning the manifest ID. The stored payload is
// re-expanded and re-hashed before anything is written; a mismatch
// aborts with ErrIntegrityCheckFailed.
func (r *Registry) Register(ensemble *gbdt.Ensemble, name, version string) (ids.ID, error) {
	return r.RegisterWithInfo(ensemble, Info{
		Name:      name,
		Version:   version,
		ModelType: defaultModelType,
	})
}

// RegisterWithInfo is Register with full authoring metadata.
func (r *Registry) RegisterWithInfo(ensemble *gbdt.Ensemble, info Info) (ids.ID, error) {
	if err := ensemble.Verify(); err != nil {
		return ids.Empty, err
	}

	canonical, err := codec.Canonicalize(ensemble)
	if err != nil {
		return ids.Empty, err
	}
	contentHash := codec.Hash(canonical)

	payload, err := r.codec.Compress(canonical)
	if err != nil {
		return ids.Empty, err
	}

	manifest := &Manifest{
		ID:              contentHash,
		Name:            info.Name,
		Version:         info.Version,
		CreatedAt:       r.clock.UnixMicro(),
		ModelType:       info.ModelType,
		Accuracy:        info.Accuracy,
		TrainingSamples: info.TrainingSamples,
		ContentHash:     contentHash,
		Payload:         payload,
	}

	// Re-expand the payload exactly as a loader would and require the
	// recomputed hash to match before anything is persisted.
	expanded, err := r.codec.Decompress(manifest.Payload)
	if err != nil {
		return ids.Empty, fmt.Errorf("%w: %w", ErrIntegrityCheckFailed, err)
	}
	if recomputed := codec.Hash(expanded); recomputed != manifest.ID {
		r.metrics.integrityFailures.Inc()
		return ids.Empty, fmt.Errorf("%w: payload hashes to %s, manifest declares %s",
			ErrIntegrityCheckFailed, codec.HashHex(recomputed), codec.HashHex(manifest.ID))
	}

	bytes, err := manifest.Bytes()
	if err != nil {
		return ids.Empty, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.db.Put(manifest.ID[:], bytes); err != nil {
		return ids.Empty, err
	}

	r.metrics.registrations.Inc()
	r.log.Info("registered model",
		log.String("id", codec.HashHex(manifest.ID)),
		log.String("name", manifest.Name),
		log.String("version", manifest.Version),
		log.Int("trees", len(ensemble.Trees)),
		log.Int("nodes", ensemble.NumNodes()),
	)
	return manifest.ID, nil
}

// GetManifest fetches and parses a manifest without verifying or
// expanding its payload. The context bounds only the database fetch.
func (r *Registry) GetManifest(ctx context.Context, id ids.ID) (*Manifest, error) {
	bytes, err := r.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return ParseManifest(bytes)
}

// Load fetches the manifest for id, verifies the payload hash against
// the declared identity, and only then decompresses and decodes the
// ensemble. Any mismatch fails with ErrCorruptedModel; there is no
// fallback to a cached or default model.
func (r *Registry) Load(ctx context.Context, id ids.ID) (*gbdt.Ensemble, error) {
	manifest, err := r.GetManifest(ctx, id)
	if err != nil {
		r.metrics.loadFailures.Inc()
		return nil, err
	}

	if manifest.ID != id || manifest.ContentHash != id {
		r.metrics.loadFailures.Inc()
		return nil, fmt.Errorf("%w: manifest identity mismatch", ErrCorruptedModel)
	}

	canonical, err := r.codec.Decompress(manifest.Payload)
	if err != nil {
		r.metrics.loadFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrCorruptedModel, err)
	}
	if recomputed := codec.Hash(canonical); recomputed != id {
		r.metrics.loadFailures.Inc()
		r.metrics.integrityFailures.Inc()
		return nil, fmt.Errorf("%w: payload hashes to %s, want %s",
			ErrCorruptedModel, codec.HashHex(recomputed), codec.HashHex(id))
	}

	ensemble, err := codec.Decode(canonical)
	if err != nil {
		r.metrics.loadFailures.Inc()
		return nil, err
	}
	if err := ensemble.Verify(); err != nil {
		r.metrics.loadFailures.Inc()
		return nil, err
	}

	r.metrics.loads.Inc()
	r.log.Info("loaded verified model",
		log.String("id", codec.HashHex(id)),
		log.String("name", manifest.Name),
		log.String("version", manifest.Version),
	)
	return ensemble, nil
}

// Has reports whether a manifest is stored under id.
func (r *Registry) Has(id ids.ID) (bool, error) {
	return r.db.Has(id[:])
}

// fetch reads the manifest bytes, failing fast when the context is
// done instead of blocking on storage indefinitely.
func (r *Registry) fetch(ctx context.Context, id ids.ID) ([]byte, error) {
	type result struct {
		bytes []byte
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		bytes, err := r.db.Get(id[:])
		ch <- result{bytes: bytes, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrMissingFile, ctx.Err())
	case res := <-ch:
		if errors.Is(res.err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, codec.HashHex(id))
		}
		return res.bytes, res.err
	}
}
