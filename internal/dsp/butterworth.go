// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dsp holds the signal-processing primitives shared by the EGEA
// analysis engine: IIR low-pass filtering, peak detection and spectrum
// estimation.
package dsp

import "math"

// biquad is a single second-order IIR section (transposed direct form II).
// Cascading sections yields higher-order filters.
type biquad struct {
	a0, a1, a2, b1, b2 float64
	z1, z2             float64
}

func (f *biquad) process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

// prime sets the section state to the steady state of a constant input x, so
// a signal with a large DC level does not start the pass with a step
// transient. The expressions follow from the unity DC gain of the section.
func (f *biquad) prime(x float64) {
	f.z1 = x * (1 - f.a0)
	f.z2 = x * (f.a2 - f.b2)
}

// Butterworth is an N-th order Butterworth low-pass built as a cascade of
// biquad sections.
type Butterworth struct {
	sections []*biquad
	order    int
}

// NewButterworthLowpass creates an N-th order Butterworth low-pass filter.
// order must be even. The cutoff frequency is clamped just below Nyquist to
// keep the bilinear prewarp (math.Tan) finite.
func NewButterworthLowpass(order int, sampleRate, cutoffFreq float64) *Butterworth {
	if order%2 != 0 {
		panic("dsp: Butterworth filter order must be even")
	}
	if cutoffFreq >= sampleRate*0.499 {
		cutoffFreq = sampleRate * 0.499
	}

	sections := make([]*biquad, order/2)

	// Bilinear transform from the analog prototype, low-Q sections first.
	w := 2.0 * sampleRate * math.Tan(math.Pi*cutoffFreq/sampleRate)

	for i := 0; i < order/2; i++ {
		poleIdx := (order/2 - 1) - i
		theta := math.Pi * (2.0*float64(poleIdx) + 1.0) / (2.0 * float64(order))

		pRe := -w * math.Sin(theta)
		pIm := w * math.Cos(theta)

		alpha := 4.0*sampleRate*sampleRate - 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm

		b1 := (-8.0*sampleRate*sampleRate + 2.0*(pRe*pRe+pIm*pIm)) / alpha
		b2 := (4.0*sampleRate*sampleRate + 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm) / alpha

		a0 := (w * w) / alpha

		sections[i] = &biquad{
			a0: a0, a1: 2 * a0, a2: a0,
			b1: b1, b2: b2,
		}
	}

	return &Butterworth{sections: sections, order: order}
}

// Apply runs the filter forward over the signal and returns a new slice.
// Filter state is primed to the first sample's DC steady state before the
// pass, so calls are independent and a nonzero baseline does not produce a
// start-up step.
func (bw *Butterworth) Apply(signal []float64) []float64 {
	if len(signal) == 0 {
		return nil
	}
	for _, s := range bw.sections {
		s.prime(signal[0])
	}
	out := make([]float64, len(signal))
	for i, v := range signal {
		for _, s := range bw.sections {
			v = s.process(v)
		}
		out[i] = v
	}
	return out
}

// FiltFilt applies the filter forward and backward so the net result has zero
// phase shift. Both ends are extended with odd reflections of the signal, and
// the pad is sized to the decay of the slowest pole so the edge transient has
// died off before the real samples begin.
func (bw *Butterworth) FiltFilt(signal []float64) []float64 {
	n := len(signal)
	if n == 0 {
		return nil
	}

	pad := 3 * (bw.order + 1)
	if r := bw.maxPoleRadius(); r > 0 && r < 1 {
		// Samples until the transient envelope r^k falls below 1e-6.
		if k := int(math.Ceil(math.Log(1e-6) / math.Log(r))); k > pad {
			pad = k
		}
	}
	if pad >= n {
		pad = n - 1
	}

	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*signal[0] - signal[pad-i]
		ext[pad+n+i] = 2*signal[n-1] - signal[n-2-i]
	}
	copy(ext[pad:], signal)

	y := bw.Apply(ext)
	reverse(y)
	y = bw.Apply(y)
	reverse(y)

	out := make([]float64, n)
	copy(out, y[pad:pad+n])
	return out
}

// maxPoleRadius is the largest pole magnitude across the sections. For a
// complex-conjugate biquad pair the pole product equals the b2 coefficient.
func (bw *Butterworth) maxPoleRadius() float64 {
	r := 0.0
	for _, s := range bw.sections {
		if s.b2 > 0 {
			if pr := math.Sqrt(s.b2); pr > r {
				r = pr
			}
		}
	}
	return r
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
