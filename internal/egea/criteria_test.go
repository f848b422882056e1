// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"math"
	"testing"
)

func validPhaseResult(minPhase, staticWeight float64) PhaseShiftResult {
	return PhaseShiftResult{
		Periods:       []PhaseShiftPeriod{{PeriodIndex: 1, PhaseShift: minPhase, IsValid: true}},
		MinPhaseShift: &minPhase,
		StaticWeight:  staticWeight,
	}
}

func TestAbsoluteCriterionThresholds(t *testing.T) {
	eval := NewCriteriaEvaluator(DefaultParams())

	cases := []struct {
		phase   float64
		vehicle VehicleType
		want    bool
	}{
		{35.0, VehicleM1, true},
		{34.9, VehicleM1, false},
		{30.0, VehicleN1, true},
		{29.9, VehicleN1, false},
		{32.0, VehicleM1, false}, // N1 would pass, M1 is stricter
		{32.0, VehicleN1, true},
	}
	for _, c := range cases {
		got := eval.AbsoluteCriterion(validPhaseResult(c.phase, 500), c.vehicle)
		if got != c.want {
			t.Errorf("phase %.1f° %s: got %v, want %v", c.phase, c.vehicle, got, c.want)
		}
	}

	if eval.AbsoluteCriterion(PhaseShiftResult{}, VehicleM1) {
		t.Error("missing min phase must fail the absolute criterion")
	}
}

func TestWheelPassRequiresCleanSignal(t *testing.T) {
	eval := NewCriteriaEvaluator(DefaultParams())

	phase := validPhaseResult(50, 500)
	if !eval.WheelPass(phase, VehicleM1) {
		t.Fatal("valid 50° result must pass")
	}

	underflowed := validPhaseResult(50, 500)
	underflowed.FUnderFlag = true
	if eval.WheelPass(underflowed, VehicleM1) {
		t.Error("underflowed signal must fail regardless of phase")
	}

	overflowed := validPhaseResult(50, 500)
	overflowed.FOverFlag = true
	if eval.WheelPass(overflowed, VehicleM1) {
		t.Error("overflowed signal must fail regardless of phase")
	}
}

func TestImbalance(t *testing.T) {
	if got := Imbalance(50, 40); math.Abs(got-20.0) > 1e-9 {
		t.Errorf("Imbalance(50,40) = %.2f, want 20", got)
	}
	if Imbalance(50, 40) != Imbalance(40, 50) {
		t.Error("imbalance must be symmetric")
	}
	if got := Imbalance(0, 0); got != 0 {
		t.Errorf("Imbalance(0,0) = %.2f, want 0", got)
	}
	if got := Imbalance(10, 0); math.Abs(got-100.0) > 1e-9 {
		t.Errorf("Imbalance(10,0) = %.2f, want 100", got)
	}
}

func wheelResult(minPhase, rfaMax, rigidity, staticWeight float64) TestResult {
	return TestResult{
		PhaseShift:            validPhaseResult(minPhase, staticWeight),
		ForceAnalysis:         ForceAnalysisResult{RFAMax: rfaMax, StaticWeight: staticWeight},
		Rigidity:              RigidityResult{Rigidity: rigidity},
		AbsoluteCriterionPass: true,
		RelativeCriterionPass: true,
		OverallPass:           true,
	}
}

func TestEvaluateAxleBalanced(t *testing.T) {
	eval := NewCriteriaEvaluator(DefaultParams())

	left := wheelResult(48, 20, 250, 500)
	right := wheelResult(45, 22, 240, 510)
	axle := eval.EvaluateAxle("front", left, right)

	if !axle.OverallPass {
		t.Fatal("balanced axle with passing wheels must pass")
	}
	if axle.AxleWeight != 1010 {
		t.Errorf("axle weight %.0f N, want 1010", axle.AxleWeight)
	}
	if axle.DPhiMin == nil || math.Abs(*axle.DPhiMin-6.25) > 0.01 {
		t.Errorf("phase imbalance %v, want 6.25%%", axle.DPhiMin)
	}
	if axle.DRigidity == nil || math.Abs(*axle.DRigidity-4.0) > 0.01 {
		t.Errorf("rigidity imbalance %v, want 4%%", axle.DRigidity)
	}
}

func TestEvaluateAxlePhaseImbalanceFails(t *testing.T) {
	eval := NewCriteriaEvaluator(DefaultParams())

	// 48 vs 20 degrees: 58% imbalance against the 30% limit.
	left := wheelResult(48, 20, 250, 500)
	right := wheelResult(20, 20, 250, 500)
	right.AbsoluteCriterionPass = false
	right.OverallPass = false

	axle := eval.EvaluateAxle("front", left, right)
	if axle.RelativePhiMinPass {
		t.Error("58% phase imbalance must fail the 30% relative criterion")
	}
	if axle.OverallPass {
		t.Error("axle with a failing wheel must fail")
	}
}

func TestEvaluateAxleInvalidWheelBlocksImbalances(t *testing.T) {
	eval := NewCriteriaEvaluator(DefaultParams())

	left := wheelResult(48, 20, 250, 500)
	right := wheelResult(45, 20, 250, 500)
	right.PhaseShift.FUnderFlag = true // invalidates the right wheel data
	right.OverallPass = false

	axle := eval.EvaluateAxle("front", left, right)
	if axle.DPhiMin != nil || axle.DRFAMax != nil || axle.DRigidity != nil {
		t.Error("imbalances must stay nil when one wheel has invalid phase data")
	}
	if axle.OverallPass {
		t.Error("axle with invalid wheel data must fail")
	}
}
