// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"fmt"
	"math"
)

// DynamicCalibrator verifies, from an unloaded-platform run, that the force
// sensor noise stays inside the frequency-proportional budget
// |Fp(t)| <= DynCalErr * f (3.10). It must pass before the rig may test a
// vehicle.
type DynamicCalibrator struct {
	params Params
	sp     *SignalProcessor
}

// NewDynamicCalibrator builds the calibrator for the given parameter set.
func NewDynamicCalibrator(params Params) *DynamicCalibrator {
	return &DynamicCalibrator{params: params, sp: NewSignalProcessor(params)}
}

// Calibrate segments the unloaded-platform force trace into cycles, measures
// the peak absolute force of each in-window cycle and checks it against the
// budget. platformMass is recorded for rig telemetry only and does not enter
// the pass/fail formula.
func (c *DynamicCalibrator) Calibrate(platformForce, time []float64, platformMass float64) DynamicCalibrationResult {
	_ = platformMass

	result := DynamicCalibrationResult{}
	if len(time) < 2 || len(platformForce) != len(time) {
		result.ErrorMessage = "calibration trace too short or length mismatch"
		return result
	}
	sampleRate := 1.0 / (time[1] - time[0])

	tops := c.sp.FindPlatformTops(platformForce, sampleRate)
	if len(tops) < 2 {
		result.ErrorMessage = "no oscillation cycles found in calibration trace"
		return result
	}

	for i := 1; i < len(tops); i++ {
		frequency := c.sp.CycleFrequency(tops[i-1], tops[i], time)
		if frequency < c.params.MinCalcFreq || frequency > c.params.MaxCalcFreq {
			continue
		}
		maxFp := 0.0
		for _, v := range platformForce[tops[i-1]:tops[i]] {
			if a := math.Abs(v); a > maxFp {
				maxFp = a
			}
		}
		result.MaxFp = append(result.MaxFp, maxFp)
		result.DeltaPeriod = append(result.DeltaPeriod, 0)
		result.Frequencies = append(result.Frequencies, frequency)
	}

	maxViolation := 0.0
	for i, f := range result.Frequencies {
		allowed := c.params.DynCalErr * f
		if excess := result.MaxFp[i] - allowed; excess > maxViolation {
			maxViolation = excess
		}
	}

	result.IsValid = maxViolation <= 0
	if !result.IsValid {
		result.ErrorMessage = fmt.Sprintf("calibration error: %.2fN above the %.1fN/Hz budget",
			maxViolation, c.params.DynCalErr)
	}
	return result
}
