// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package egea implements the EGEA SPECSUS2018 suspension analysis: per-cycle
// phase-shift measurement, force amplitude analysis, tire rigidity estimation,
// dynamic calibration and the absolute/relative pass-fail criteria.
package egea

import "fmt"

// VehicleType selects the vehicle class the absolute criterion applies to.
type VehicleType string

const (
	// VehicleM1 is a passenger car.
	VehicleM1 VehicleType = "M1"
	// VehicleN1 is a light commercial vehicle.
	VehicleN1 VehicleType = "N1"
)

// Params carries every SPECSUS2018 constant the analysis depends on. A Params
// value is immutable once validated; analyzers hold it by value so concurrent
// test runs cannot interfere with each other.
type Params struct {
	// Frequency window for per-cycle analysis (3.22, 5.4).
	MinCalcFreq float64 // Hz
	MaxCalcFreq float64 // Hz

	// Absolute criterion thresholds per vehicle class (5.5).
	PhaseShiftMinM1 float64 // degrees
	PhaseShiftMinN1 float64 // degrees

	// Static weight position inside the per-cycle force swing (3.21).
	RFstFMinPct float64 // %
	RFstFMaxPct float64 // %

	// Tire rigidity calibration (3.20).
	ARig     float64 // slope, N/mm per (N/mm)
	BRig     float64 // intercept, N/mm
	RigLoLim float64 // N/mm, underinflation warning below
	RigHiLim float64 // N/mm, overinflation warning above

	// Dynamic calibration budget (3.10), N per Hz.
	DynCalErr float64

	// Nominal platform excursion ep (5.1), mm.
	PlatformAmplitude float64

	// Phase filter design (Annex 1): passband edge PassMulPh*f, stopband
	// edge StopMulPh*f, ripple EpsPh.
	PassMulPh float64
	StopMulPh float64
	EpsPh     float64

	// Relative (left/right) criteria thresholds (5.6), %.
	RcRFAMaxPct float64
	RcPhiMinPct float64
	RcRigPct    float64

	// Underflow limit as a percentage of the static weight (3.16).
	FUnderLimPct float64

	// Pre-measurement hold at 25 Hz (5.4): Fst*DeltaT25Factor + DeltaT25Base, ms.
	DeltaT25Base   float64
	DeltaT25Factor float64

	// Minimum number of samples a trace must carry to be analyzable.
	MinSampleCount int
}

// DefaultParams returns the SPECSUS2018 parameter set.
func DefaultParams() Params {
	return Params{
		MinCalcFreq:       6.0,
		MaxCalcFreq:       18.0,
		PhaseShiftMinM1:   35.0,
		PhaseShiftMinN1:   30.0,
		RFstFMinPct:       25.0,
		RFstFMaxPct:       25.0,
		ARig:              0.571,
		BRig:              46.0,
		RigLoLim:          160.0,
		RigHiLim:          400.0,
		DynCalErr:         4.0,
		PlatformAmplitude: 3.0,
		PassMulPh:         2.0,
		StopMulPh:         4.0,
		EpsPh:             0.01,
		RcRFAMaxPct:       30.0,
		RcPhiMinPct:       30.0,
		RcRigPct:          35.0,
		FUnderLimPct:      1.0,
		DeltaT25Base:      1200.0,
		DeltaT25Factor:    0.16,
		MinSampleCount:    100,
	}
}

// Validate reports the first setup mistake it finds. Configuration errors are
// the one place the engine fails loudly: they indicate a broken installation,
// not noisy field data.
func (p Params) Validate() error {
	if p.MinCalcFreq <= 0 {
		return fmt.Errorf("egea: MinCalcFreq must be positive, got %g", p.MinCalcFreq)
	}
	if p.MinCalcFreq >= p.MaxCalcFreq {
		return fmt.Errorf("egea: MinCalcFreq (%g) must be below MaxCalcFreq (%g)",
			p.MinCalcFreq, p.MaxCalcFreq)
	}
	if p.PhaseShiftMinM1 <= 0 || p.PhaseShiftMinM1 > 180 {
		return fmt.Errorf("egea: PhaseShiftMinM1 out of range: %g", p.PhaseShiftMinM1)
	}
	if p.PhaseShiftMinN1 <= 0 || p.PhaseShiftMinN1 > 180 {
		return fmt.Errorf("egea: PhaseShiftMinN1 out of range: %g", p.PhaseShiftMinN1)
	}
	if p.RFstFMinPct < 0 || p.RFstFMinPct >= 50 {
		return fmt.Errorf("egea: RFstFMinPct out of range: %g", p.RFstFMinPct)
	}
	if p.RFstFMaxPct < 0 || p.RFstFMaxPct >= 50 {
		return fmt.Errorf("egea: RFstFMaxPct out of range: %g", p.RFstFMaxPct)
	}
	if p.PlatformAmplitude <= 0 {
		return fmt.Errorf("egea: PlatformAmplitude must be positive, got %g", p.PlatformAmplitude)
	}
	if p.DynCalErr <= 0 {
		return fmt.Errorf("egea: DynCalErr must be positive, got %g", p.DynCalErr)
	}
	if p.PassMulPh <= 0 || p.StopMulPh <= p.PassMulPh {
		return fmt.Errorf("egea: phase filter multipliers invalid: pass=%g stop=%g",
			p.PassMulPh, p.StopMulPh)
	}
	if p.FUnderLimPct <= 0 || p.FUnderLimPct >= 100 {
		return fmt.Errorf("egea: FUnderLimPct out of range: %g", p.FUnderLimPct)
	}
	if p.RcRFAMaxPct <= 0 || p.RcPhiMinPct <= 0 || p.RcRigPct <= 0 {
		return fmt.Errorf("egea: relative criterion thresholds must be positive")
	}
	if p.MinSampleCount < 3 {
		return fmt.Errorf("egea: MinSampleCount too small: %d", p.MinSampleCount)
	}
	return nil
}

// PhaseShiftMin returns the absolute criterion threshold for the vehicle
// class. Unknown classes fall back to the stricter M1 threshold.
func (p Params) PhaseShiftMin(vt VehicleType) float64 {
	switch vt {
	case VehicleN1:
		return p.PhaseShiftMinN1
	default:
		return p.PhaseShiftMinM1
	}
}

// FUnderLim is the force level below which the signal counts as underflow:
// Fst * FUnderLimPct / 100 (3.16).
func (p Params) FUnderLim(staticWeight float64) float64 {
	return staticWeight * p.FUnderLimPct / 100.0
}

// DeltaT25 is the minimum hold time at the 25 Hz start frequency before the
// sweep may begin, in milliseconds (5.4).
func (p Params) DeltaT25(staticWeight float64) float64 {
	return staticWeight*p.DeltaT25Factor + p.DeltaT25Base
}
