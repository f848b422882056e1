// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// phase18Tolerance is the frequency window around 18 Hz in which a period
// counts as the φmax reference (3.22).
const phase18Tolerance = 0.5 // Hz

// PhaseShiftAnalyzer computes the per-cycle phase shift between platform
// motion and tire force and aggregates it into the minimum-phase-shift
// verdict data. Analyze is a pure function of its inputs; one analyzer can
// serve any number of concurrent test runs.
type PhaseShiftAnalyzer struct {
	params Params
	sp     *SignalProcessor
}

// NewPhaseShiftAnalyzer builds the analyzer for the given parameter set.
func NewPhaseShiftAnalyzer(params Params) *PhaseShiftAnalyzer {
	return &PhaseShiftAnalyzer{params: params, sp: NewSignalProcessor(params)}
}

// Analyze runs the full sweep analysis (3.21, 3.22). Cycles that fall outside
// the frequency window, fail the RFst condition or yield no crossing pair are
// dropped silently; the result stays valid as long as one period survives and
// the force never underflowed.
func (a *PhaseShiftAnalyzer) Analyze(platformPosition, tireForce, time []float64, staticWeight float64) PhaseShiftResult {
	result := PhaseShiftResult{StaticWeight: staticWeight}
	if len(time) < 2 {
		return result
	}
	sampleRate := 1.0 / (time[1] - time[0])

	// Saturation is judged on the unfiltered whole trace.
	result.FUnderFlag, result.FOverFlag = a.sp.DetectOverflowUnderflow(tireForce, staticWeight, nil)

	tops := a.sp.FindPlatformTops(platformPosition, sampleRate)
	if len(tops) < 2 {
		return result
	}

	for i := 1; i < len(tops); i++ {
		period, ok := a.analyzePeriod(platformPosition, tireForce, time, staticWeight,
			tops[i-1], tops[i], i, sampleRate)
		if ok {
			result.Periods = append(result.Periods, period)
		}
	}

	a.aggregate(&result)
	return result
}

// analyzePeriod evaluates one cycle between two platform tops. The bool
// return is false for cycles excluded from the period list.
func (a *PhaseShiftAnalyzer) analyzePeriod(platformPosition, tireForce, time []float64,
	staticWeight float64, startIdx, endIdx, periodIndex int, sampleRate float64) (PhaseShiftPeriod, bool) {

	frequency := a.sp.CycleFrequency(startIdx, endIdx, time)
	if frequency < a.params.MinCalcFreq || frequency > a.params.MaxCalcFreq {
		return PhaseShiftPeriod{}, false
	}

	cycleForce := tireForce[startIdx:endIdx]
	cycleTime := time[startIdx:endIdx]
	cyclePlatform := platformPosition[startIdx:endIdx]

	if !a.sp.ValidateRFstConditions(cycleForce, staticWeight) {
		return PhaseShiftPeriod{}, false
	}

	// Filter with one cycle of real context on each side and cut the cycle
	// back out, so the filter transient falls outside the crossing search.
	ctx := endIdx - startIdx
	lo := startIdx - ctx
	if lo < 0 {
		lo = 0
	}
	hi := endIdx + ctx
	if hi > len(tireForce) {
		hi = len(tireForce)
	}
	filteredExt := a.sp.ApplyPhaseFilter(tireForce[lo:hi], sampleRate, frequency)
	filtered := filteredExt[startIdx-lo : endIdx-lo]

	// True TOPp(i): the platform peak inside the cycle, not just its start.
	peakIdx := floats.MaxIdx(cyclePlatform)
	topP := cycleTime[peakIdx] - cycleTime[0]

	fref, ok := a.sp.CalculateFref(filtered, cycleTime, staticWeight)
	if !ok {
		return PhaseShiftPeriod{}, false
	}
	frefRel := fref - cycleTime[0]

	phaseDeg := (frefRel - topP) * frequency * 360.0
	phaseDeg = math.Mod(phaseDeg, 360.0)
	if phaseDeg < 0 {
		phaseDeg += 360.0
	}
	if phaseDeg > 180.0 {
		phaseDeg = 360.0 - phaseDeg
	}

	maxForce := floats.Max(cycleForce)
	minForce := floats.Min(cycleForce)

	return PhaseShiftPeriod{
		PeriodIndex:  periodIndex,
		Frequency:    frequency,
		PhaseShift:   phaseDeg,
		Fref:         frefRel,
		TopP:         topP,
		MaxForce:     maxForce,
		MinForce:     minForce,
		DeltaForce:   maxForce - minForce,
		StaticWeight: staticWeight,
		IsValid:      true,
	}, true
}

// aggregate derives φmin, φmax near 18 Hz and the RFAmax period from the
// valid periods. With no valid period the optional aggregates stay nil and
// the result reports invalid.
func (a *PhaseShiftAnalyzer) aggregate(result *PhaseShiftResult) {
	var minPeriod *PhaseShiftPeriod
	for i := range result.Periods {
		p := &result.Periods[i]
		if !p.IsValid {
			continue
		}
		if minPeriod == nil || p.PhaseShift < minPeriod.PhaseShift {
			minPeriod = p
		}
	}
	if minPeriod == nil {
		return
	}

	minPhase := minPeriod.PhaseShift
	minFreq := minPeriod.Frequency
	result.MinPhaseShift = &minPhase
	result.MinPhaseFrequency = &minFreq

	for i := range result.Periods {
		p := &result.Periods[i]
		if p.IsValid && math.Abs(p.Frequency-18.0) < phase18Tolerance {
			maxPhase := p.PhaseShift
			result.MaxPhaseShift = &maxPhase
			break
		}
	}

	maxRFA := 0.0
	for i := range result.Periods {
		p := &result.Periods[i]
		if !p.IsValid {
			continue
		}
		if rfa := p.RFAMax(); rfa > maxRFA {
			maxRFA = rfa
			rfaVal := rfa
			rfaFreq := p.Frequency
			result.RFAMaxValue = &rfaVal
			result.RFAMaxFrequency = &rfaFreq
		}
	}
}
