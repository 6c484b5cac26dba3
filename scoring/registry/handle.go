// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"context"
	"sync/atomic"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/dmrl789/IPPAN-sub009/scoring/codec"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
)

// Handle is a swappable reference to the active ensemble. Scoring
// reads the current model with a single atomic load while a reload
// verifies and installs a replacement; a round in flight keeps using
// the model it started with.
type Handle struct {
	registry *Registry
	active   atomic.Pointer[activeModel]
}

type activeModel struct {
	id       ids.ID
	ensemble *gbdt.Ensemble
}

// NewHandle returns a handle with no model installed.
func (r *Registry) NewHandle() *Handle {
	return &Handle{registry: r}
}

// PinnedLoad loads the model with the given hash and installs it.
// The loaded model's identity is already hash-verified by Load; a
// disagreement between the requested pin and the loaded identity can
// only mean a programming error, but it is checked anyway.
func (h *Handle) PinnedLoad(ctx context.Context, pin ids.ID) error {
	ensemble, err := h.registry.Load(ctx, pin)
	if err != nil {
		return err
	}
	canonical, err := codec.Canonicalize(ensemble)
	if err != nil {
		return err
	}
	if got := codec.Hash(canonical); got != pin {
		return ErrPinnedHashMismatch
	}
	h.active.Store(&activeModel{id: pin, ensemble: ensemble})
	h.registry.metrics.reloads.Inc()
	h.registry.log.Info("installed pinned model", log.String("id", codec.HashHex(pin)))
	return nil
}

// Reload atomically replaces the active model with id. The previous
// model remains active until the new one has fully loaded and
// verified; a failed reload leaves the handle unchanged.
func (h *Handle) Reload(ctx context.Context, id ids.ID) error {
	return h.PinnedLoad(ctx, id)
}

// Current returns the active ensemble and its content hash. ok is
// false when no model has been installed.
func (h *Handle) Current() (*gbdt.Ensemble, ids.ID, bool) {
	m := h.active.Load()
	if m == nil {
		return nil, ids.Empty, false
	}
	return m.ensemble, m.id, true
}
