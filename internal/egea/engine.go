// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"fmt"

	"github.com/relabs-tech/suspension_tester/internal/measurement"
)

// Engine runs a complete EGEA test for one wheel: input validation, optional
// dynamic calibration, phase-shift and force analysis, rigidity estimation
// and criteria evaluation. An Engine is immutable after construction and safe
// for concurrent use; every RunWheelTest call works only on its own inputs.
type Engine struct {
	params     Params
	phase      *PhaseShiftAnalyzer
	force      *ForceAnalyzer
	rigidity   *RigidityCalculator
	calibrator *DynamicCalibrator
	criteria   *CriteriaEvaluator
}

// NewEngine validates the parameters and assembles the analyzers. A
// parameter error is returned before any analysis can run.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:     params,
		phase:      NewPhaseShiftAnalyzer(params),
		force:      NewForceAnalyzer(params),
		rigidity:   NewRigidityCalculator(params),
		calibrator: NewDynamicCalibrator(params),
		criteria:   NewCriteriaEvaluator(params),
	}, nil
}

// Params returns the engine's parameter snapshot.
func (e *Engine) Params() Params { return e.params }

// RunWheelTest executes the full analysis for one wheel. Structurally invalid
// input yields an explicit failed result carrying the diagnostic; it never
// panics on field data.
func (e *Engine) RunWheelTest(sample *measurement.SampleSet, vt VehicleType) TestResult {
	result := TestResult{
		WheelID:     sample.WheelID,
		VehicleType: vt,
		DynamicCalibration: DynamicCalibrationResult{IsValid: true},
		// Relative criteria are judged at axle level; a lone wheel carries
		// the benefit of the doubt.
		RelativeCriterionPass: true,
	}

	if err := sample.Validate(e.params.MinSampleCount); err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.PhaseShift = PhaseShiftResult{StaticWeight: sample.StaticWeight}
		result.Rigidity = RigidityResult{PlatformAmplitude: e.params.PlatformAmplitude}
		return result
	}

	if len(sample.PlatformForce) > 0 {
		result.DynamicCalibration = e.calibrator.Calibrate(sample.PlatformForce, sample.Time, sample.PlatformMass)
		if !result.DynamicCalibration.IsValid {
			result.Errors = append(result.Errors, result.DynamicCalibration.ErrorMessage)
		}
	}

	result.PhaseShift = e.phase.Analyze(sample.PlatformPosition, sample.TireForce, sample.Time, sample.StaticWeight)
	result.ForceAnalysis = e.force.Analyze(sample.TireForce, sample.Time, sample.StaticWeight, sample.OverLimit)

	if sample.H25 != nil {
		result.Rigidity = e.rigidity.Calculate(*sample.H25, 0)
	} else {
		result.Rigidity = e.rigidity.CalculateFromTrace(sample.TireForce)
	}

	result.AbsoluteCriterionPass = e.criteria.AbsoluteCriterion(result.PhaseShift, vt)
	result.OverallPass = e.criteria.WheelPass(result.PhaseShift, vt)
	if !result.PhaseShift.IsValid() && len(result.PhaseShift.Periods) == 0 {
		result.Errors = append(result.Errors, "no analyzable oscillation cycles in the measured sweep")
	}
	return result
}

// RunAxleTest analyzes both wheels of an axle and evaluates the relative
// criteria between them.
func (e *Engine) RunAxleTest(axleID string, left, right *measurement.SampleSet, vt VehicleType) (AxleResult, error) {
	if left == nil || right == nil {
		return AxleResult{}, fmt.Errorf("egea: axle test needs both wheel measurements")
	}
	leftResult := e.RunWheelTest(left, vt)
	rightResult := e.RunWheelTest(right, vt)
	return e.criteria.EvaluateAxle(axleID, leftResult, rightResult), nil
}
