// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"

	"github.com/luxfi/metric"
)

type registryMetrics struct {
	registrations     metric.Counter
	loads             metric.Counter
	loadFailures      metric.Counter
	integrityFailures metric.Counter
	reloads           metric.Counter
}

func newMetrics(registerer metric.Registerer) (*registryMetrics, error) {
	if registerer == nil {
		return &registryMetrics{
			registrations:     metric.NewNoopCounter("model_registrations"),
			loads:             metric.NewNoopCounter("model_loads"),
			loadFailures:      metric.NewNoopCounter("model_load_failures"),
			integrityFailures: metric.NewNoopCounter("model_integrity_failures"),
			reloads:           metric.NewNoopCounter("model_reloads"),
		}, nil
	}

	m := &registryMetrics{
		registrations: metric.NewCounter(metric.CounterOpts{
			Name: "model_registrations",
			Help: "Number of models registered",
		}),
		loads: metric.NewCounter(metric.CounterOpts{
			Name: "model_loads",
			Help: "Number of models loaded and verified",
		}),
		loadFailures: metric.NewCounter(metric.CounterOpts{
			Name: "model_load_failures",
			Help: "Number of model loads that failed",
		}),
		integrityFailures: metric.NewCounter(metric.CounterOpts{
			Name: "model_integrity_failures",
			Help: "Number of content hash mismatches detected",
		}),
		reloads: metric.NewCounter(metric.CounterOpts{
			Name: "model_reloads",
			Help: "Number of active model swaps",
		}),
	}

	err := errors.Join(
		registerer.Register(metric.AsCollector(m.registrations)),
		registerer.Register(metric.AsCollector(m.loads)),
		registerer.Register(metric.AsCollector(m.loadFailures)),
		registerer.Register(metric.AsCollector(m.integrityFailures)),
		registerer.Register(metric.AsCollector(m.reloads)),
	)
	return m, err
}
