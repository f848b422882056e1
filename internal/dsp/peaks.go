// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import "sort"

// FindPeaks returns the indices of local maxima of signal, in ascending
// order. A candidate peak must rise above its surroundings by at least
// minProminence, and peaks closer than minDistance samples to a higher peak
// are discarded (the higher peak wins).
func FindPeaks(signal []float64, minDistance int, minProminence float64) []int {
	n := len(signal)
	if n < 3 {
		return nil
	}

	// Local maxima; a flat plateau counts once, at its midpoint.
	var candidates []int
	for i := 1; i < n-1; i++ {
		if signal[i] < signal[i-1] {
			continue
		}
		if signal[i] > signal[i-1] && signal[i] > signal[i+1] {
			candidates = append(candidates, i)
			continue
		}
		if signal[i] > signal[i-1] && signal[i] == signal[i+1] {
			j := i
			for j < n-1 && signal[j] == signal[j+1] {
				j++
			}
			if j < n-1 && signal[j] > signal[j+1] {
				candidates = append(candidates, (i+j)/2)
			}
			i = j
		}
	}

	if minProminence > 0 {
		kept := candidates[:0]
		for _, p := range candidates {
			if prominence(signal, p) >= minProminence {
				kept = append(kept, p)
			}
		}
		candidates = kept
	}

	if minDistance > 1 && len(candidates) > 1 {
		candidates = enforceDistance(signal, candidates, minDistance)
	}

	return candidates
}

// prominence measures how far a peak rises above the higher of the two
// valleys separating it from taller terrain (or the signal edge).
func prominence(signal []float64, peak int) float64 {
	leftMin := signal[peak]
	for i := peak - 1; i >= 0; i-- {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < leftMin {
			leftMin = signal[i]
		}
	}

	rightMin := signal[peak]
	for i := peak + 1; i < len(signal); i++ {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < rightMin {
			rightMin = signal[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return signal[peak] - base
}

// enforceDistance keeps the highest peaks first and drops any remaining peak
// within minDistance samples of one already kept.
func enforceDistance(signal []float64, peaks []int, minDistance int) []int {
	byHeight := make([]int, len(peaks))
	copy(byHeight, peaks)
	sort.Slice(byHeight, func(i, j int) bool {
		return signal[byHeight[i]] > signal[byHeight[j]]
	})

	removed := make(map[int]bool, len(peaks))
	pos := make([]int, len(peaks))
	copy(pos, peaks)

	for _, p := range byHeight {
		if removed[p] {
			continue
		}
		for _, q := range pos {
			if q == p || removed[q] {
				continue
			}
			d := q - p
			if d < 0 {
				d = -d
			}
			if d < minDistance {
				removed[q] = true
			}
		}
	}

	var out []int
	for _, p := range peaks {
		if !removed[p] {
			out = append(out, p)
		}
	}
	return out
}
