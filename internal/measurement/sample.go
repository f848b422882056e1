// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package measurement defines the raw test-run record the analysis engine
// consumes and the validation gate that keeps bad sensor data out of it.
package measurement

import "fmt"

// SampleSet is one complete wheel measurement as delivered by the hardware
// bridge or the simulator: three equal-length series plus the static wheel
// weight. It is treated as immutable input to a test run.
type SampleSet struct {
	WheelID string `json:"wheel_id"` // e.g. "FL", "FR", "RL", "RR"

	PlatformPosition []float64 `json:"platform_position"` // mm
	TireForce        []float64 `json:"tire_force"`        // N
	Time             []float64 `json:"time"`              // s, strictly increasing

	StaticWeight float64 `json:"static_weight"` // N, > 0

	// PlatformForce is the optional unloaded-platform trace recorded before
	// the vehicle drives on, used for dynamic calibration.
	PlatformForce []float64 `json:"platform_force,omitempty"`
	PlatformMass  float64   `json:"platform_mass,omitempty"` // kg

	// H25 is the force amplitude measured during the 25 Hz calibration hold.
	// When nil the engine falls back to a stddev-based estimate.
	H25 *float64 `json:"h25,omitempty"` // N

	// OverLimit is the hardware saturation ceiling of the force sensor,
	// when the bridge knows it.
	OverLimit *float64 `json:"over_limit,omitempty"` // N
}

// Validate checks the structural invariants of the record. A non-nil error
// means the data cannot be analyzed at all; it is an expected outcome for
// broken sensor feeds, not a programmer error.
func (s *SampleSet) Validate(minSamples int) error {
	n := len(s.Time)
	if len(s.PlatformPosition) != n || len(s.TireForce) != n {
		return fmt.Errorf("measurement: array length mismatch: position=%d force=%d time=%d",
			len(s.PlatformPosition), len(s.TireForce), n)
	}
	if n < minSamples {
		return fmt.Errorf("measurement: %d samples, need at least %d", n, minSamples)
	}
	for i := 1; i < n; i++ {
		if s.Time[i] <= s.Time[i-1] {
			return fmt.Errorf("measurement: time not strictly increasing at sample %d", i)
		}
	}
	if s.StaticWeight <= 0 {
		return fmt.Errorf("measurement: static weight must be positive, got %g", s.StaticWeight)
	}
	if len(s.PlatformForce) > 0 && len(s.PlatformForce) != n {
		return fmt.Errorf("measurement: platform force length %d does not match time length %d",
			len(s.PlatformForce), n)
	}
	return nil
}

// SampleRate is the nominal sampling frequency implied by the first two
// timestamps, or 0 when the record is too short.
func (s *SampleSet) SampleRate() float64 {
	if len(s.Time) < 2 {
		return 0
	}
	return 1.0 / (s.Time[1] - s.Time[0])
}

// Duration is the covered time span in seconds.
func (s *SampleSet) Duration() float64 {
	if len(s.Time) == 0 {
		return 0
	}
	return s.Time[len(s.Time)-1] - s.Time[0]
}
