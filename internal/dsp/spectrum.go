// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DominantFrequency estimates the strongest spectral component of samples
// between minFreq and maxFreq, returning the frequency in Hz and its
// magnitude. A Hann window is applied before the FFT and the peak bin is
// refined by parabolic interpolation of the neighbouring magnitudes.
//
// Used for sweep telemetry and generator self-checks; the per-cycle analysis
// in the egea package works in the time domain and does not go through here.
func DominantFrequency(samples []float64, sampleRate, minFreq, maxFreq float64) (float64, float64) {
	n := len(samples)
	if n < 4 || sampleRate <= 0 {
		return 0, 0
	}

	input := make([]complex128, n)
	for i, v := range samples {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		input[i] = complex(v*w, 0)
	}

	spectrum := fft.FFT(input)

	binWidth := sampleRate / float64(n)
	startBin := int(minFreq / binWidth)
	endBin := int(maxFreq / binWidth)
	if startBin < 1 {
		startBin = 1 // skip DC
	}
	if endBin > n/2 {
		endBin = n / 2
	}

	mags := make([]float64, n/2+1)
	maxMag := 0.0
	maxBin := 0
	for i := startBin; i < endBin; i++ {
		mag := cmplx.Abs(spectrum[i])
		mags[i] = mag
		if mag > maxMag {
			maxMag = mag
			maxBin = i
		}
	}
	if maxBin == 0 {
		return 0, 0
	}

	freq := float64(maxBin) * binWidth
	if maxBin > 0 && maxBin < len(mags)-1 {
		alpha := mags[maxBin-1]
		beta := mags[maxBin]
		gamma := mags[maxBin+1]
		denom := alpha - 2*beta + gamma
		if denom != 0 {
			p := 0.5 * (alpha - gamma) / denom
			freq = (float64(maxBin) + p) * binWidth
		}
	}

	return freq, maxMag
}
