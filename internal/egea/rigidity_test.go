// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"math"
	"testing"
)

func TestRigidityFormula(t *testing.T) {
	calc := NewRigidityCalculator(DefaultParams())

	// rig = 0.571 * (H25 / ep) + 46
	result := calc.Calculate(900, 3.0)
	want := 0.571*300.0 + 46.0
	if math.Abs(result.Rigidity-want) > 1e-9 {
		t.Errorf("rigidity %.3f N/mm, want %.3f", result.Rigidity, want)
	}
	if result.H25Estimated {
		t.Error("directly measured H25 must not be marked estimated")
	}
	if !result.IsValidPressure() {
		t.Error("217 N/mm sits inside the 160-400 window")
	}
}

func TestRigidityDefaultAmplitude(t *testing.T) {
	calc := NewRigidityCalculator(DefaultParams())
	// Zero amplitude falls back to the nominal 3 mm platform stroke.
	explicit := calc.Calculate(900, 3.0)
	implicit := calc.Calculate(900, 0)
	if explicit.Rigidity != implicit.Rigidity {
		t.Errorf("default amplitude: got %.3f, want %.3f", implicit.Rigidity, explicit.Rigidity)
	}
	if implicit.PlatformAmplitude != 3.0 {
		t.Errorf("platform amplitude %.1f mm, want 3.0", implicit.PlatformAmplitude)
	}
}

func TestRigidityInflationWarnings(t *testing.T) {
	calc := NewRigidityCalculator(DefaultParams())

	low := calc.Calculate(500, 3.0) // 141.2 N/mm
	if !low.WarningUnderinflation {
		t.Error("141 N/mm below the 160 limit must warn about underinflation")
	}
	if low.WarningOverinflation {
		t.Error("low rigidity must not warn about overinflation")
	}

	high := calc.Calculate(1900, 3.0) // 407.6 N/mm
	if !high.WarningOverinflation {
		t.Error("408 N/mm above the 400 limit must warn about overinflation")
	}
	if high.IsValidPressure() {
		t.Error("a warned result must not report valid pressure")
	}
}

func TestRigidityFromTrace(t *testing.T) {
	calc := NewRigidityCalculator(DefaultParams())

	// For a pure sine of amplitude A the stddev is A/sqrt(2), so the H25
	// estimate 2*stddev comes out at sqrt(2)*A.
	force, _ := forceSine(500, 400, 25, 1000, 2.0)
	result := calc.CalculateFromTrace(force)

	if !result.H25Estimated {
		t.Fatal("trace-derived H25 must be marked estimated")
	}
	wantH25 := math.Sqrt2 * 400.0
	if math.Abs(result.H25-wantH25)/wantH25 > 0.01 {
		t.Errorf("H25 estimate %.1f N, want ~%.1f", result.H25, wantH25)
	}
}
