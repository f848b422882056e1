// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ForceAnalyzer derives the whole-trace force figures: filtered extrema, the
// maximum force amplitude FAmax, the resonance estimate and RFAmax (3.15,
// 3.17, 3.18).
type ForceAnalyzer struct {
	params Params
	sp     *SignalProcessor
}

// NewForceAnalyzer builds the analyzer for the given parameter set.
func NewForceAnalyzer(params Params) *ForceAnalyzer {
	return &ForceAnalyzer{params: params, sp: NewSignalProcessor(params)}
}

// Analyze filters the trace with the wideband amplitude filter and picks the
// FAmax branch mandated by the saturation flags. overLimit is the optional
// hardware overflow threshold.
func (a *ForceAnalyzer) Analyze(tireForce, time []float64, staticWeight float64, overLimit *float64) ForceAnalysisResult {
	result := ForceAnalysisResult{StaticWeight: staticWeight}
	if len(tireForce) == 0 || len(time) < 2 {
		return result
	}
	sampleRate := 1.0 / (time[1] - time[0])

	filtered := a.sp.ApplyForceAmplitudeFilter(tireForce, sampleRate)

	result.FMin = floats.Min(filtered)
	result.FMax = floats.Max(filtered)
	result.FUnderFlag, result.FOverFlag = a.sp.DetectOverflowUnderflow(filtered, staticWeight, overLimit)

	switch {
	case !result.FUnderFlag && !result.FOverFlag:
		result.FAMax = staticWeight - result.FMin
		tMin := time[floats.MinIdx(filtered)]
		if tMin > 0 {
			result.ResonantFrequency = 1.0 / (2.0 * tMin)
		}
	case result.FUnderFlag && !result.FOverFlag:
		result.FAMax = result.FMax - staticWeight
		tMax := time[floats.MaxIdx(filtered)]
		if tMax > 0 {
			result.ResonantFrequency = 1.0 / (2.0 * tMax)
		}
	default:
		// Overflow present: saturation hides the real extrema, take the
		// larger distance between the limits and the static weight. The
		// resonance cannot be located in a clipped trace.
		over := result.FMax
		if overLimit != nil {
			over = *overLimit
		}
		under := a.params.FUnderLim(staticWeight)
		result.FAMax = math.Max(over-staticWeight, staticWeight-under)
	}

	if staticWeight > 0 {
		result.RFAMax = result.FAMax / staticWeight * 100.0
	}
	return result
}
