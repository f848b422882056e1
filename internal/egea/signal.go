// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/suspension_tester/internal/dsp"
)

// CrossingDirection says which way the force passed through the static
// weight.
type CrossingDirection int

const (
	// CrossingUp is a rising pass through the static weight.
	CrossingUp CrossingDirection = iota
	// CrossingDown is a falling pass.
	CrossingDown
)

// Crossing is one interpolated static-weight crossing.
type Crossing struct {
	Time      float64
	Direction CrossingDirection
}

// SignalProcessor bundles the SPECSUS2018 signal primitives: platform top
// detection, static-weight crossings, the per-cycle phase filter and the
// wideband amplitude filter, and saturation flags. It is stateless apart from
// the immutable parameter set.
type SignalProcessor struct {
	params Params
}

// NewSignalProcessor wraps the given parameters.
func NewSignalProcessor(params Params) *SignalProcessor {
	return &SignalProcessor{params: params}
}

const (
	phaseFilterOrder = 4
	forceFilterOrder = 4
	forceFilterPass  = 50.0 // Hz (Annex 1; stopband edge 130 Hz)
)

// FindPlatformTops locates the platform TOP of every oscillation cycle
// (3.11): local maxima with a prominence of at least 10% of the signal's
// standard deviation, no closer together than half the period of the highest
// analyzed frequency.
func (sp *SignalProcessor) FindPlatformTops(position []float64, sampleRate float64) []int {
	if len(position) < 3 {
		return nil
	}
	minDistance := int(sampleRate / (sp.params.MaxCalcFreq * 2))
	if minDistance < 1 {
		minDistance = 1
	}
	sigma := stat.StdDev(position, nil)
	return dsp.FindPeaks(position, minDistance, 0.1*sigma)
}

// FindStaticWeightCrossings scans consecutive sample pairs and records every
// point where the force passes through the static weight, with the crossing
// time linearly interpolated between the two samples.
func (sp *SignalProcessor) FindStaticWeightCrossings(force, time []float64, staticWeight float64) []Crossing {
	var crossings []Crossing
	for i := 1; i < len(force); i++ {
		prev := force[i-1]
		curr := force[i]
		if !(prev < staticWeight && staticWeight < curr) &&
			!(prev > staticWeight && staticWeight > curr) {
			continue
		}
		fraction := (staticWeight - prev) / (curr - prev)
		t := time[i-1] + fraction*(time[i]-time[i-1])
		dir := CrossingDown
		if curr > prev {
			dir = CrossingUp
		}
		crossings = append(crossings, Crossing{Time: t, Direction: dir})
	}
	return crossings
}

// CalculateFref determines the force reference instant of one cycle (3.7):
// the midpoint between the first falling and the first rising static-weight
// crossing. When the directions cannot be separated it falls back to the
// midpoint of the first two crossings found. The second return is false when
// fewer than two crossings exist.
func (sp *SignalProcessor) CalculateFref(force, time []float64, staticWeight float64) (float64, bool) {
	crossings := sp.FindStaticWeightCrossings(force, time, staticWeight)
	if len(crossings) < 2 {
		return 0, false
	}

	var down, up *Crossing
	for i := range crossings {
		c := &crossings[i]
		if c.Direction == CrossingDown && down == nil {
			down = c
		}
		if c.Direction == CrossingUp && up == nil {
			up = c
		}
	}
	if down == nil || up == nil {
		return (crossings[0].Time + crossings[1].Time) / 2.0, true
	}
	return (down.Time + up.Time) / 2.0, true
}

// ValidateRFstConditions checks that the static weight sits far enough inside
// the cycle's force swing (3.21). Cycles whose mean crosses too close to an
// extremum make the crossing-based phase estimate unstable and are rejected.
func (sp *SignalProcessor) ValidateRFstConditions(force []float64, staticWeight float64) bool {
	if len(force) == 0 {
		return false
	}
	maxForce := floats.Max(force)
	minForce := floats.Min(force)
	delta := maxForce - minForce

	lo := minForce + delta*sp.params.RFstFMinPct/100.0
	hi := maxForce - delta*sp.params.RFstFMaxPct/100.0
	return lo < staticWeight && staticWeight < hi
}

// ApplyPhaseFilter is the per-cycle low-pass used before crossing detection
// (Annex 1): passband edge PassMulPh*frequencyStep, stopband edge
// StopMulPh*frequencyStep, ripple EpsPh, applied forward-backward so the
// crossings keep their position in time.
func (sp *SignalProcessor) ApplyPhaseFilter(signal []float64, sampleRate, frequencyStep float64) []float64 {
	cutoff := sp.params.PassMulPh * frequencyStep
	bw := dsp.NewButterworthLowpass(phaseFilterOrder, sampleRate, cutoff)
	return bw.FiltFilt(signal)
}

// ApplyForceAmplitudeFilter is the wideband zero-phase low-pass used for
// whole-trace extrema (Annex 1): passband 0-50 Hz, stopband from 130 Hz.
func (sp *SignalProcessor) ApplyForceAmplitudeFilter(signal []float64, sampleRate float64) []float64 {
	bw := dsp.NewButterworthLowpass(forceFilterOrder, sampleRate, forceFilterPass)
	return bw.FiltFilt(signal)
}

// DetectOverflowUnderflow classifies signal saturation (3.16). The underflow
// limit is a function of the static weight; the overflow limit is a hardware
// property and only checked when the caller supplies it.
func (sp *SignalProcessor) DetectOverflowUnderflow(signal []float64, staticWeight float64, overLimit *float64) (underFlag, overFlag bool) {
	if len(signal) == 0 {
		return false, false
	}
	underFlag = floats.Min(signal) < sp.params.FUnderLim(staticWeight)
	if overLimit != nil {
		overFlag = floats.Max(signal) > *overLimit
	}
	return underFlag, overFlag
}

// CycleFrequency is the oscillation frequency implied by the time between
// two platform tops, or 0 for a degenerate cycle.
func (sp *SignalProcessor) CycleFrequency(startIdx, endIdx int, time []float64) float64 {
	duration := time[endIdx] - time[startIdx]
	if duration <= 0 {
		return 0
	}
	return 1.0 / duration
}
