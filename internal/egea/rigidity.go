// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import "gonum.org/v1/gonum/stat"

// RigidityCalculator estimates tire stiffness from the force amplitude at
// the 25 Hz reference frequency (3.20): rig = arig*(H25/ep) + brig.
type RigidityCalculator struct {
	params Params
}

// NewRigidityCalculator builds the calculator for the given parameter set.
func NewRigidityCalculator(params Params) *RigidityCalculator {
	return &RigidityCalculator{params: params}
}

// Calculate applies the EGEA rigidity formula. platformAmplitude is the
// platform excursion ep in mm; pass 0 to use the configured nominal value.
// Inflation warnings fire outside the configured rigidity limits; they are
// informational and never fail a test on their own.
func (c *RigidityCalculator) Calculate(h25, platformAmplitude float64) RigidityResult {
	if platformAmplitude == 0 {
		platformAmplitude = c.params.PlatformAmplitude
	}
	rigidity := c.params.ARig*(h25/platformAmplitude) + c.params.BRig
	return RigidityResult{
		Rigidity:              rigidity,
		H25:                   h25,
		PlatformAmplitude:     platformAmplitude,
		WarningUnderinflation: rigidity < c.params.RigLoLim,
		WarningOverinflation:  rigidity > c.params.RigHiLim,
	}
}

// CalculateFromTrace is the fallback when no dedicated 25 Hz calibration
// amplitude is available: H25 is estimated as twice the standard deviation of
// the force trace. The result is marked as estimated so reports can flag the
// approximation.
func (c *RigidityCalculator) CalculateFromTrace(tireForce []float64) RigidityResult {
	h25 := 2.0 * stat.StdDev(tireForce, nil)
	result := c.Calculate(h25, 0)
	result.H25Estimated = true
	return result
}
