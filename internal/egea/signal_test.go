// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package egea

import (
	"math"
	"testing"
)

// forceSine builds Fst + amp*sin(2*pi*freq*t) with matching time axis.
func forceSine(staticWeight, amp, freq, sampleRate, duration float64) (force, times []float64) {
	n := int(duration * sampleRate)
	force = make([]float64, n)
	times = make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		times[i] = t
		force[i] = staticWeight + amp*math.Sin(2*math.Pi*freq*t)
	}
	return force, times
}

// forceSineOffset is forceSine with the waveform advanced by t0, placing the
// static-weight crossings between samples. A sample sitting exactly on the
// static weight does not count as a crossing.
func forceSineOffset(staticWeight, amp, freq, sampleRate, duration, t0 float64) (force, times []float64) {
	n := int(duration * sampleRate)
	force = make([]float64, n)
	times = make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		times[i] = t
		force[i] = staticWeight + amp*math.Sin(2*math.Pi*freq*(t+t0))
	}
	return force, times
}

func TestFindStaticWeightCrossings(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	// Half a sample of offset keeps every zero of the sine between samples.
	force, times := forceSineOffset(500, 100, 10, 1000, 0.5, 0.0005)

	crossings := sp.FindStaticWeightCrossings(force, times, 500)

	if len(crossings) != 9 {
		t.Fatalf("got %d crossings, want 9", len(crossings))
	}
	for i, c := range crossings {
		wantTime := 0.05*float64(i+1) - 0.0005
		if math.Abs(c.Time-wantTime) > 1e-3 {
			t.Errorf("crossing %d at %.4fs, want %.4fs", i, c.Time, wantTime)
		}
		wantDir := CrossingDown
		if i%2 == 1 {
			wantDir = CrossingUp
		}
		if c.Direction != wantDir {
			t.Errorf("crossing %d direction %v, want %v", i, c.Direction, wantDir)
		}
	}
}

func TestCrossingsSkipExactTouch(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	// The middle sample lands exactly on the static weight; neither adjacent
	// pair brackets it strictly, so no crossing is reported.
	force := []float64{490, 500, 510}
	times := []float64{0, 0.001, 0.002}

	if got := sp.FindStaticWeightCrossings(force, times, 500); len(got) != 0 {
		t.Fatalf("got %d crossings through an exact-touch sample, want 0", len(got))
	}
}

func TestCalculateFrefMidpoint(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	force, times := forceSineOffset(500, 100, 10, 1000, 0.5, 0.0005)

	fref, ok := sp.CalculateFref(force, times, 500)
	if !ok {
		t.Fatal("expected a force reference instant")
	}
	// First falling crossing at 49.5 ms, first rising at 99.5 ms.
	if math.Abs(fref-0.0745) > 1e-3 {
		t.Errorf("fref %.4fs, want 0.0745s", fref)
	}
}

func TestCalculateFrefNeedsTwoCrossings(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	force := []float64{480, 490, 495, 498}
	times := []float64{0, 0.001, 0.002, 0.003}
	if _, ok := sp.CalculateFref(force, times, 500); ok {
		t.Error("flat trace must not yield a force reference")
	}
}

func TestValidateRFstConditions(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	force, _ := forceSine(500, 100, 10, 1000, 0.2)

	if !sp.ValidateRFstConditions(force, 500) {
		t.Error("centered static weight must pass")
	}
	// 595 N sits within 25% of the 600 N maximum.
	if sp.ValidateRFstConditions(force, 595) {
		t.Error("static weight near the force maximum must fail")
	}
	if sp.ValidateRFstConditions(force, 405) {
		t.Error("static weight near the force minimum must fail")
	}
	if sp.ValidateRFstConditions(nil, 500) {
		t.Error("empty cycle must fail")
	}
}

func TestFindPlatformTops(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	position, _ := forceSine(0, 3, 10, 1000, 1.0)

	tops := sp.FindPlatformTops(position, 1000)
	if len(tops) != 10 {
		t.Fatalf("got %d tops, want 10", len(tops))
	}
	for i := 1; i < len(tops); i++ {
		if d := tops[i] - tops[i-1]; d < 95 || d > 105 {
			t.Errorf("top spacing %d samples, want ~100", d)
		}
	}
}

func TestDetectOverflowUnderflow(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())

	// Underflow limit for 500 N is 5 N.
	under, over := sp.DetectOverflowUnderflow([]float64{400, 3, 600}, 500, nil)
	if !under {
		t.Error("3 N sample must trip the underflow flag")
	}
	if over {
		t.Error("overflow must stay clear without a hardware limit")
	}

	limit := 550.0
	under, over = sp.DetectOverflowUnderflow([]float64{400, 500, 600}, 500, &limit)
	if under {
		t.Error("no sample below 5 N, underflow must stay clear")
	}
	if !over {
		t.Error("600 N above the 550 N hardware limit must trip overflow")
	}
}

func TestCycleFrequency(t *testing.T) {
	sp := NewSignalProcessor(DefaultParams())
	times := []float64{0, 0.025, 0.05, 0.075, 0.1}
	if f := sp.CycleFrequency(0, 4, times); math.Abs(f-10.0) > 1e-9 {
		t.Errorf("got %g Hz, want 10", f)
	}
	if f := sp.CycleFrequency(2, 2, times); f != 0 {
		t.Errorf("degenerate cycle: got %g, want 0", f)
	}
}
