// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the caller-supplied round configuration.
// Nothing in the scoring core hard-codes a model hash, threshold, or
// multiplier bound; every deployment decides these.
package config

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

var (
	ErrInvalidThreshold  = errors.New("config: quorum threshold must be in (0, 1]")
	ErrInvalidShadowSize = errors.New("config: shadow set size must be positive")
	ErrInvalidMultiplier = errors.New("config: multiplier bounds must be positive and ordered")
	ErrNoPinnedModel     = errors.New("config: pinned model hash is empty")
)

type Config struct {
	// PinnedModelHash is the only model the engine will score with.
	// Startup aborts if the registry cannot produce a verified model
	// with this hash.
	PinnedModelHash ids.ID

	// QuorumThreshold is the fraction of validators that must report
	// the same prediction hash, in (0, 1].
	QuorumThreshold fixed.Val

	// ShadowSetSize is the number of shadow verifiers selected per
	// round.
	ShadowSetSize int

	// MinMultiplier and MaxMultiplier bound the reward adjustment.
	MinMultiplier fixed.Val
	MaxMultiplier fixed.Val
}

// DefaultConfig leaves PinnedModelHash empty; the deployment must set
// it before the config validates.
func DefaultConfig() Config {
	twoThirds, _ := fixed.FromRatio(2, 3)
	return Config{
		QuorumThreshold: twoThirds,
		ShadowSetSize:   5,
		MinMultiplier:   fixed.FromRaw(800_000),
		MaxMultiplier:   fixed.FromRaw(1_200_000),
	}
}

func (c *Config) Validate() error {
	if c.PinnedModelHash == ids.Empty {
		return ErrNoPinnedModel
	}
	if c.QuorumThreshold.Cmp(fixed.Zero) <= 0 || c.QuorumThreshold.Cmp(fixed.One) > 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidThreshold, c.QuorumThreshold)
	}
	if c.ShadowSetSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidShadowSize, c.ShadowSetSize)
	}
	if c.MinMultiplier.Cmp(fixed.Zero) <= 0 || c.MinMultiplier.Cmp(c.MaxMultiplier) > 0 {
		return fmt.Errorf("%w: [%s, %s]", ErrInvalidMultiplier, c.MinMultiplier, c.MaxMultiplier)
	}
	return nil
}
