// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import "math"

// PhaseShiftPeriod is one analyzed oscillation cycle, bounded by two
// consecutive platform tops. Values are fixed at creation.
type PhaseShiftPeriod struct {
	PeriodIndex  int     `json:"period_index"`
	Frequency    float64 `json:"frequency"`    // Hz
	PhaseShift   float64 `json:"phase_shift"`  // degrees, 0..180
	Fref         float64 `json:"fref"`         // s, cycle-relative crossing midpoint
	TopP         float64 `json:"top_p"`        // s, cycle-relative platform peak
	MaxForce     float64 `json:"max_force"`    // N
	MinForce     float64 `json:"min_force"`    // N
	DeltaForce   float64 `json:"delta_force"`  // N, peak to peak
	StaticWeight float64 `json:"static_weight"`
	IsValid      bool    `json:"is_valid"`
}

// RFAMax is the relative force amplitude of this period: the larger force
// deviation from the static weight, as a percentage of it (3.18).
func (p PhaseShiftPeriod) RFAMax() float64 {
	if p.StaticWeight == 0 {
		return 0
	}
	amp := math.Max(math.Abs(p.MaxForce-p.StaticWeight), math.Abs(p.MinForce-p.StaticWeight))
	return amp / p.StaticWeight * 100.0
}

// PhaseShiftResult aggregates all periods of one frequency sweep (3.21, 3.22).
// Optional aggregates are nil when no valid period produced them.
type PhaseShiftResult struct {
	Periods           []PhaseShiftPeriod `json:"periods"`
	MinPhaseShift     *float64           `json:"min_phase_shift,omitempty"`     // φmin, degrees
	MinPhaseFrequency *float64           `json:"min_phase_frequency,omitempty"` // Hz
	MaxPhaseShift     *float64           `json:"max_phase_shift,omitempty"`     // φ near 18 Hz
	StaticWeight      float64            `json:"static_weight"`
	FUnderFlag        bool               `json:"f_under_flag"`
	FOverFlag         bool               `json:"f_over_flag"`
	RFAMaxValue       *float64           `json:"rfa_max_value,omitempty"`     // %
	RFAMaxFrequency   *float64           `json:"rfa_max_frequency,omitempty"` // Hz
}

// IsValid reports whether the sweep produced usable phase data: a minimum
// phase shift exists, at least one period was recorded and the force signal
// never underflowed.
func (r PhaseShiftResult) IsValid() bool {
	return r.MinPhaseShift != nil && len(r.Periods) > 0 && !r.FUnderFlag
}

// IntegerMinPhase is the truncated φmin shown on cabinet displays (6.2.1),
// or nil when no minimum exists.
func (r PhaseShiftResult) IntegerMinPhase() *int {
	if r.MinPhaseShift == nil {
		return nil
	}
	v := int(*r.MinPhaseShift)
	return &v
}

// ForceAnalysisResult holds the whole-trace force figures (3.15, 3.17, 3.18).
type ForceAnalysisResult struct {
	FMin              float64 `json:"fmin"`               // N
	FMax              float64 `json:"fmax"`               // N
	FAMax             float64 `json:"fa_max"`             // N
	ResonantFrequency float64 `json:"resonant_frequency"` // Hz, 0 when undetermined
	RFAMax            float64 `json:"rfa_max"`            // %
	StaticWeight      float64 `json:"static_weight"`
	FUnderFlag        bool    `json:"f_under_flag"`
	FOverFlag         bool    `json:"f_over_flag"`
}

// RigidityResult is the tire stiffness estimate (3.20). H25Estimated marks
// the stddev fallback used when no 25 Hz calibration amplitude was supplied.
type RigidityResult struct {
	Rigidity              float64 `json:"rigidity"` // N/mm
	H25                   float64 `json:"h25"`      // N
	PlatformAmplitude     float64 `json:"platform_amplitude"` // mm
	H25Estimated          bool    `json:"h25_estimated"`
	WarningUnderinflation bool    `json:"warning_underinflation"`
	WarningOverinflation  bool    `json:"warning_overinflation"`
}

// IsValidPressure reports whether neither inflation warning fired.
func (r RigidityResult) IsValidPressure() bool {
	return !r.WarningUnderinflation && !r.WarningOverinflation
}

// DynamicCalibrationResult is the outcome of the unloaded-platform noise
// check (3.10).
type DynamicCalibrationResult struct {
	MaxFp        []float64 `json:"max_fp"`       // N per analyzed cycle
	DeltaPeriod  []float64 `json:"delta_period"` // s per analyzed cycle
	Frequencies  []float64 `json:"frequencies"`  // Hz per analyzed cycle
	IsValid      bool      `json:"is_valid"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// TestResult is the complete verdict for one wheel.
type TestResult struct {
	WheelID     string      `json:"wheel_id"`
	VehicleType VehicleType `json:"vehicle_type"`

	PhaseShift         PhaseShiftResult         `json:"phase_shift"`
	ForceAnalysis      ForceAnalysisResult      `json:"force_analysis"`
	Rigidity           RigidityResult           `json:"rigidity"`
	DynamicCalibration DynamicCalibrationResult `json:"dynamic_calibration"`

	AbsoluteCriterionPass bool     `json:"absolute_criterion_pass"`
	RelativeCriterionPass bool     `json:"relative_criterion_pass"`
	OverallPass           bool     `json:"overall_pass"`
	Errors                []string `json:"errors,omitempty"`
}

// AxleResult pairs the two wheels of an axle and the relative (left/right)
// criteria between them (5.3, 5.6).
type AxleResult struct {
	AxleID     string     `json:"axle_id"`
	LeftWheel  TestResult `json:"left_wheel"`
	RightWheel TestResult `json:"right_wheel"`

	AxleWeight float64 `json:"axle_weight"` // N

	// Imbalances, nil unless both wheels produced valid phase data.
	DRFAMax   *float64 `json:"d_rfa_max,omitempty"`   // %
	DPhiMin   *float64 `json:"d_phi_min,omitempty"`   // %
	DIPhiMin  *float64 `json:"d_i_phi_min,omitempty"` // %, integer-displayed φmin
	DRigidity *float64 `json:"d_rigidity,omitempty"`  // %

	RelativeRFAMaxPass   bool `json:"relative_rfa_max_pass"`
	RelativePhiMinPass   bool `json:"relative_phi_min_pass"`
	RelativeRigidityPass bool `json:"relative_rigidity_pass"`

	OverallPass bool `json:"overall_pass"`
}
