// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import "math"

// CriteriaEvaluator applies the absolute per-wheel criterion and the relative
// left/right criteria, and folds them into the wheel and axle verdicts (5.5,
// 5.6). All methods are pure functions of their arguments.
type CriteriaEvaluator struct {
	params Params
}

// NewCriteriaEvaluator builds the evaluator for the given parameter set.
func NewCriteriaEvaluator(params Params) *CriteriaEvaluator {
	return &CriteriaEvaluator{params: params}
}

// AbsoluteCriterion reports whether φmin meets the class threshold.
func (e *CriteriaEvaluator) AbsoluteCriterion(phase PhaseShiftResult, vt VehicleType) bool {
	return phase.MinPhaseShift != nil && *phase.MinPhaseShift >= e.params.PhaseShiftMin(vt)
}

// WheelPass is the overall per-wheel verdict: the absolute criterion holds,
// the phase data is valid and the force signal never saturated.
func (e *CriteriaEvaluator) WheelPass(phase PhaseShiftResult, vt VehicleType) bool {
	return e.AbsoluteCriterion(phase, vt) &&
		!phase.FUnderFlag && !phase.FOverFlag &&
		phase.IsValid()
}

// Imbalance is the EGEA left/right difference measure (5.3):
// |v1-v2| / max(v1,v2) * 100, and 0 when both values are 0. It is symmetric
// in its arguments.
func Imbalance(v1, v2 float64) float64 {
	m := math.Max(v1, v2)
	if m == 0 {
		return 0
	}
	return math.Abs(v1-v2) / m * 100.0
}

// EvaluateAxle combines two wheel results into the axle verdict. Imbalances
// are only computed when both wheels produced valid phase data; without them
// the relative criteria fail and so does the axle.
func (e *CriteriaEvaluator) EvaluateAxle(axleID string, left, right TestResult) AxleResult {
	axle := AxleResult{
		AxleID:     axleID,
		LeftWheel:  left,
		RightWheel: right,
	}

	if left.PhaseShift.IsValid() && right.PhaseShift.IsValid() {
		axle.AxleWeight = left.PhaseShift.StaticWeight + right.PhaseShift.StaticWeight

		dRFA := Imbalance(left.ForceAnalysis.RFAMax, right.ForceAnalysis.RFAMax)
		axle.DRFAMax = &dRFA

		if left.PhaseShift.MinPhaseShift != nil && right.PhaseShift.MinPhaseShift != nil {
			dPhi := Imbalance(*left.PhaseShift.MinPhaseShift, *right.PhaseShift.MinPhaseShift)
			axle.DPhiMin = &dPhi
		}

		// The integer-displayed imbalance is informational: the pass/fail
		// relative criterion uses the unrounded φmin.
		if li, ri := left.PhaseShift.IntegerMinPhase(), right.PhaseShift.IntegerMinPhase(); li != nil && ri != nil {
			dIPhi := Imbalance(float64(*li), float64(*ri))
			axle.DIPhiMin = &dIPhi
		}

		dRig := Imbalance(left.Rigidity.Rigidity, right.Rigidity.Rigidity)
		axle.DRigidity = &dRig

		axle.RelativeRFAMaxPass = dRFA <= e.params.RcRFAMaxPct
		axle.RelativePhiMinPass = axle.DPhiMin != nil && *axle.DPhiMin <= e.params.RcPhiMinPct
		axle.RelativeRigidityPass = dRig <= e.params.RcRigPct
	}

	axle.OverallPass = left.OverallPass && right.OverallPass &&
		axle.RelativeRFAMaxPass && axle.RelativePhiMinPass && axle.RelativeRigidityPass
	return axle
}
