// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scorer

import (
	"errors"
	"fmt"
	"math"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
)

var ErrTelemetryOutOfRange = errors.New("scorer: telemetry counter exceeds representable range")

// Telemetry is the raw integer counters collected for one validator
// over an observation window. It is converted into ValidatorMetrics
// with fixed-point arithmetic only; nothing here touches floats.
type Telemetry struct {
	OnlineTicks uint64
	TotalTicks  uint64

	ValidatedBlocks uint64
	MissedBlocks    uint64

	LatencySumMicros uint64
	LatencyProbes    uint64

	SlashingEvents uint64

	Stake    uint64
	MaxStake uint64

	// PeerReportSum is the raw fixed-point sum of peer quality reports,
	// each already in [0, 1].
	PeerReportSum int64
	PeerReports   uint64
}

// MetricsFromTelemetry builds the 7-feature metrics from raw counters.
// Ratio features with a zero denominator resolve to zero rather than
// erroring, since an empty observation window is a valid state for a
// validator that has just joined.
func MetricsFromTelemetry(t Telemetry) (ValidatorMetrics, error) {
	uptime, err := ratioOrZero(t.OnlineTicks, t.TotalTicks)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("uptime: %w", err)
	}
	validated, err := count(t.ValidatedBlocks)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("validated blocks: %w", err)
	}
	missed, err := count(t.MissedBlocks)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("missed blocks: %w", err)
	}
	if t.LatencyProbes > math.MaxUint64/1000 {
		return ValidatorMetrics{}, fmt.Errorf("latency: %w", ErrTelemetryOutOfRange)
	}
	// Average latency in milliseconds, computed as a ratio of integer
	// counters so the division rounds identically on every host.
	avgLatency, err := ratioOrZero(t.LatencySumMicros, t.LatencyProbes*1000)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("latency: %w", err)
	}
	slashes, err := count(t.SlashingEvents)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("slashing events: %w", err)
	}
	stake, err := ratioOrZero(t.Stake, t.MaxStake)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("stake: %w", err)
	}
	peerQuality, err := peerAverage(t.PeerReportSum, t.PeerReports)
	if err != nil {
		return ValidatorMetrics{}, fmt.Errorf("peer reports: %w", err)
	}

	return ValidatorMetrics{
		UptimeRatio:       uptime,
		ValidatedBlocks:   validated,
		MissedBlocks:      missed,
		AvgLatency:        avgLatency,
		SlashingEvents:    slashes,
		StakeNormalized:   stake,
		PeerReportQuality: peerQuality,
	}, nil
}

func count(n uint64) (fixed.Val, error) {
	if n > uint64(math.MaxInt64/fixed.Scale) {
		return fixed.Zero, ErrTelemetryOutOfRange
	}
	return fixed.FromInt(int64(n)), nil
}

func ratioOrZero(num, den uint64) (fixed.Val, error) {
	if den == 0 {
		return fixed.Zero, nil
	}
	if num > math.MaxInt64 || den > math.MaxInt64 {
		return fixed.Zero, ErrTelemetryOutOfRange
	}
	return fixed.FromRatio(int64(num), int64(den))
}

func peerAverage(sumRaw int64, reports uint64) (fixed.Val, error) {
	if reports == 0 {
		return fixed.Zero, nil
	}
	if reports > math.MaxInt64 {
		return fixed.Zero, ErrTelemetryOutOfRange
	}
	return fixed.FromRaw(sumRaw).DivInt(int64(reports))
}
