// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scoring

import (
	"errors"

	"github.com/luxfi/metric"
)

type engineMetrics struct {
	rounds           metric.Counter
	roundFailures    metric.Counter
	validatorsScored metric.Gauge
}

func newEngineMetrics(registerer metric.Registerer) (*engineMetrics, error) {
	if registerer == nil {
		return &engineMetrics{
			rounds:           metric.NewNoopCounter("scoring_rounds"),
			roundFailures:    metric.NewNoopCounter("scoring_round_failures"),
			validatorsScored: metric.NewNoopGauge("scoring_validators"),
		}, nil
	}

	m := &engineMetrics{
		rounds: metric.NewCounter(metric.CounterOpts{
			Name: "scoring_rounds",
			Help: "Number of completed scoring rounds",
		}),
		roundFailures: metric.NewCounter(metric.CounterOpts{
			Name: "scoring_round_failures",
			Help: "Number of scoring rounds that failed",
		}),
		validatorsScored: metric.NewGauge(metric.GaugeOpts{
			Name: "scoring_validators",
			Help: "Number of validators scored in the last round",
		}),
	}

	err := errors.Join(
		registerer.Register(metric.AsCollector(m.rounds)),
		registerer.Register(metric.AsCollector(m.roundFailures)),
		registerer.Register(metric.AsCollector(m.validatorsScored)),
	)
	return m, err
}
