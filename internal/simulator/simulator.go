// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package simulator synthesizes EGEA-conformant test sweeps: a platform
// oscillation ramping from the start frequency down to the end frequency and
// the tire force a damper of the chosen condition would answer with. The
// output feeds the simulator service and the engine's end-to-end tests.
package simulator

import (
	"math"
	"math/rand"
)

// Quality is the simulated damper condition.
type Quality string

const (
	QualityExcellent  Quality = "excellent"
	QualityGood       Quality = "good"
	QualityAcceptable Quality = "acceptable"
	QualityPoor       Quality = "poor"
)

// DampingParams model one damper condition: where the wheel resonates, how
// strongly the damping ratio suppresses the resonance peak, and the tire
// rigidity the rig would report.
type DampingParams struct {
	ResonanceFreq float64 // Hz
	DampingRatio  float64
	Rigidity      float64 // N/mm
}

// qualityPresets follow the EGEA guideline categories. A poor damper barely
// suppresses the wheel-hop resonance; its force amplitude exceeds the static
// weight there and the tire leaves the plate.
var qualityPresets = map[Quality]DampingParams{
	QualityExcellent:  {ResonanceFreq: 12.5, DampingRatio: 0.30, Rigidity: 280.0},
	QualityGood:       {ResonanceFreq: 13.0, DampingRatio: 0.23, Rigidity: 240.0},
	QualityAcceptable: {ResonanceFreq: 13.5, DampingRatio: 0.15, Rigidity: 210.0},
	QualityPoor:       {ResonanceFreq: 14.0, DampingRatio: 0.08, Rigidity: 180.0},
}

// Params returns the damping preset for a quality. Unknown values fall back
// to the good preset.
func Params(q Quality) DampingParams {
	if p, ok := qualityPresets[q]; ok {
		return p
	}
	return qualityPresets[QualityGood]
}

// Config describes one synthetic sweep.
type Config struct {
	Duration   float64 // s
	SampleRate float64 // Hz
	StartFreq  float64 // Hz, sweep start
	EndFreq    float64 // Hz, sweep end

	StaticWeight      float64 // N
	PlatformAmplitude float64 // mm
	ForceAmplitude    float64 // N, off-resonance force response

	// FixedPhaseLagDeg injects a constant force lag relative to the
	// platform, bypassing the damper model. Negative selects the
	// quality-based model.
	FixedPhaseLagDeg float64

	Quality     Quality
	NoiseStdDev float64 // N, gaussian noise on the force
	Seed        int64
}

// DefaultConfig is the standard 15 s, 1 kHz, 25 to 5 Hz EGEA sweep.
func DefaultConfig() Config {
	return Config{
		Duration:          15.0,
		SampleRate:        1000.0,
		StartFreq:         25.0,
		EndFreq:           5.0,
		StaticWeight:      500.0,
		PlatformAmplitude: 3.0,
		ForceAmplitude:    200.0,
		FixedPhaseLagDeg:  -1,
		Quality:           QualityGood,
		NoiseStdDev:       0,
		Seed:              1,
	}
}

// Sweep is one generated measurement run.
type Sweep struct {
	Time             []float64
	PlatformPosition []float64 // mm
	TireForce        []float64 // N
	StaticWeight     float64
}

// Generate synthesizes a sweep. The instantaneous frequency ramps linearly
// from StartFreq to EndFreq; the oscillation phase is the integral of it, so
// cycles stay continuous across the ramp. The tire force never goes below
// zero: a wheel cannot pull on the plate.
func Generate(cfg Config) *Sweep {
	n := int(cfg.Duration * cfg.SampleRate)
	sweep := &Sweep{
		Time:             make([]float64, n),
		PlatformPosition: make([]float64, n),
		TireForce:        make([]float64, n),
		StaticWeight:     cfg.StaticWeight,
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	damping := Params(cfg.Quality)

	phase := 0.0
	slope := (cfg.EndFreq - cfg.StartFreq) / cfg.Duration
	dt := 1.0 / cfg.SampleRate

	for i := 0; i < n; i++ {
		t := float64(i) * dt
		freq := cfg.StartFreq + slope*t
		phase += 2 * math.Pi * freq * dt

		sweep.Time[i] = t
		sweep.PlatformPosition[i] = cfg.PlatformAmplitude * math.Sin(phase)

		lagRad, gain := response(cfg, damping, freq)
		force := cfg.StaticWeight + cfg.ForceAmplitude*gain*math.Sin(phase-lagRad)
		if cfg.NoiseStdDev > 0 {
			force += rng.NormFloat64() * cfg.NoiseStdDev
		}
		if force < 0 {
			force = 0
		}
		sweep.TireForce[i] = force
	}

	return sweep
}

// response gives the force lag and amplitude magnification at one sweep
// frequency. With a fixed lag configured the magnification stays 1 and the
// lag is constant; otherwise the classic single-mass resonance response is
// used, so a weakly damped wheel amplifies strongly near resonance.
func response(cfg Config, damping DampingParams, freq float64) (lagRad, gain float64) {
	if cfg.FixedPhaseLagDeg >= 0 {
		return cfg.FixedPhaseLagDeg * math.Pi / 180.0, 1.0
	}
	r := freq / damping.ResonanceFreq
	zr := 2 * damping.DampingRatio * r
	lagRad = math.Atan2(zr, 1-r*r)
	gain = 1.0 / math.Sqrt((1-r*r)*(1-r*r)+zr*zr)
	return lagRad, gain
}

// GenerateCalibration produces an unloaded-platform force trace for the
// dynamic calibration check: the platform oscillating through the sweep with
// only the given residual force amplitude plus sensor noise.
func GenerateCalibration(cfg Config, residualAmplitude float64) *Sweep {
	n := int(cfg.Duration * cfg.SampleRate)
	sweep := &Sweep{
		Time:             make([]float64, n),
		PlatformPosition: make([]float64, n),
		TireForce:        make([]float64, n),
		StaticWeight:     0,
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	phase := 0.0
	slope := (cfg.EndFreq - cfg.StartFreq) / cfg.Duration
	dt := 1.0 / cfg.SampleRate

	for i := 0; i < n; i++ {
		t := float64(i) * dt
		freq := cfg.StartFreq + slope*t
		phase += 2 * math.Pi * freq * dt

		sweep.Time[i] = t
		sweep.PlatformPosition[i] = cfg.PlatformAmplitude * math.Sin(phase)
		sweep.TireForce[i] = residualAmplitude*math.Sin(phase) + rng.NormFloat64()*cfg.NoiseStdDev
	}
	return sweep
}
