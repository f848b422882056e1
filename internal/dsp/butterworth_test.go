// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import (
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestButterworthPassesDC(t *testing.T) {
	bw := NewButterworthLowpass(4, 1000, 20)
	signal := make([]float64, 500)
	for i := range signal {
		signal[i] = 5.0
	}
	out := bw.FiltFilt(signal)
	for i, v := range out {
		if math.Abs(v-5.0) > 1e-6 {
			t.Fatalf("sample %d: got %g, want 5.0", i, v)
		}
	}
}

func TestButterworthPassesLowFrequency(t *testing.T) {
	// 2 Hz tone, 20 Hz cutoff: amplitude must survive nearly unchanged.
	bw := NewButterworthLowpass(4, 1000, 20)
	out := bw.FiltFilt(sine(2, 1000, 2000))

	peak := 0.0
	for _, v := range out[500:1500] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < 0.95 || peak > 1.05 {
		t.Errorf("passband amplitude %g, want ~1.0", peak)
	}
}

func TestButterworthAttenuatesHighFrequency(t *testing.T) {
	// 200 Hz tone, 20 Hz cutoff: two passes of a 4th-order filter leave
	// essentially nothing.
	bw := NewButterworthLowpass(4, 1000, 20)
	out := bw.FiltFilt(sine(200, 1000, 2000))

	peak := 0.0
	for _, v := range out[500:1500] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 0.01 {
		t.Errorf("stopband amplitude %g, want < 0.01", peak)
	}
}

func TestFiltFiltZeroPhase(t *testing.T) {
	// The whole point of the forward-backward pass: the filtered peak must
	// not move in time.
	const (
		sampleRate = 1000.0
		freq       = 8.0
	)
	signal := sine(freq, sampleRate, 1000)
	bw := NewButterworthLowpass(4, sampleRate, 16)
	out := bw.FiltFilt(signal)

	rawPeak, filtPeak := 0, 0
	for i := 400; i < 600; i++ {
		if signal[i] > signal[rawPeak] {
			rawPeak = i
		}
		if out[i] > out[filtPeak] {
			filtPeak = i
		}
	}
	if d := rawPeak - filtPeak; d < -2 || d > 2 {
		t.Errorf("peak moved by %d samples, want 0", d)
	}
}

func TestFiltFiltOffsetToneKeepsEdgeExtrema(t *testing.T) {
	// A passband tone riding on a large DC level, with the trace ending
	// mid-cycle. The edge handling must not overshoot past the true extrema,
	// or downstream amplitude figures read from the filtered minimum inflate.
	const (
		sampleRate = 1000.0
		freq       = 12.0
		level      = 500.0
		amp        = 100.0
	)
	signal := make([]float64, 2000)
	for i := range signal {
		signal[i] = level + amp*math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	bw := NewButterworthLowpass(4, sampleRate, 50)
	out := bw.FiltFilt(signal)

	min, max := out[0], out[0]
	for _, v := range out {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.Abs(min-(level-amp)) > 0.5 {
		t.Errorf("filtered min %.2f, want %.2f within 0.5", min, level-amp)
	}
	if math.Abs(max-(level+amp)) > 0.5 {
		t.Errorf("filtered max %.2f, want %.2f within 0.5", max, level+amp)
	}
}

func TestFiltFiltShortWindow(t *testing.T) {
	// A single 12 Hz cycle at 1 kHz is only 83 samples; the reflection
	// padding has to keep the edges from blowing up.
	signal := sine(12, 1000, 83)
	bw := NewButterworthLowpass(4, 1000, 24)
	out := bw.FiltFilt(signal)
	if len(out) != len(signal) {
		t.Fatalf("length changed: %d -> %d", len(signal), len(out))
	}
	for i, v := range out {
		if math.Abs(v) > 2.0 {
			t.Fatalf("sample %d diverged: %g", i, v)
		}
	}
}

func TestButterworthOddOrderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("odd filter order must panic")
		}
	}()
	NewButterworthLowpass(3, 1000, 20)
}
