// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package simulator

import (
	"math"
	"testing"
)

func TestGenerateShape(t *testing.T) {
	cfg := DefaultConfig()
	sweep := Generate(cfg)

	n := int(cfg.Duration * cfg.SampleRate)
	if len(sweep.Time) != n || len(sweep.PlatformPosition) != n || len(sweep.TireForce) != n {
		t.Fatalf("series lengths %d/%d/%d, want %d",
			len(sweep.Time), len(sweep.PlatformPosition), len(sweep.TireForce), n)
	}
	if sweep.StaticWeight != cfg.StaticWeight {
		t.Errorf("static weight %.0f, want %.0f", sweep.StaticWeight, cfg.StaticWeight)
	}
	for i, p := range sweep.PlatformPosition {
		if math.Abs(p) > cfg.PlatformAmplitude+1e-9 {
			t.Fatalf("sample %d: platform %.3f mm beyond +-%.1f", i, p, cfg.PlatformAmplitude)
		}
	}
	for i, f := range sweep.TireForce {
		if f < 0 {
			t.Fatalf("sample %d: negative tire force %.1f N", i, f)
		}
	}
}

func TestGenerateDeterministicPerSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoiseStdDev = 5.0
	cfg.Seed = 42

	a := Generate(cfg)
	b := Generate(cfg)
	for i := range a.TireForce {
		if a.TireForce[i] != b.TireForce[i] {
			t.Fatalf("sample %d differs for identical seeds", i)
		}
	}

	cfg.Seed = 43
	c := Generate(cfg)
	same := true
	for i := range a.TireForce {
		if a.TireForce[i] != c.TireForce[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestFixedLagBypassesDamperModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixedPhaseLagDeg = 40

	sweep := Generate(cfg)
	// With unit gain the force stays inside Fst +- amplitude everywhere,
	// even across the resonance band.
	for i, f := range sweep.TireForce {
		if f < cfg.StaticWeight-cfg.ForceAmplitude-1e-9 ||
			f > cfg.StaticWeight+cfg.ForceAmplitude+1e-9 {
			t.Fatalf("sample %d: force %.1f N outside the fixed-lag envelope", i, f)
		}
	}
}

func TestPoorDamperLosesContact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quality = QualityPoor

	sweep := Generate(cfg)
	minForce := sweep.TireForce[0]
	for _, f := range sweep.TireForce {
		if f < minForce {
			minForce = f
		}
	}
	// The wheel-hop resonance amplifies past the static weight; the clamp
	// at zero models the tire leaving the plate.
	if minForce > 0 {
		t.Errorf("minimum force %.1f N, want contact loss at 0", minForce)
	}
}

func TestGoodDamperKeepsContact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quality = QualityGood

	sweep := Generate(cfg)
	limit := sweep.StaticWeight * 0.01
	for i, f := range sweep.TireForce {
		if f < limit {
			t.Fatalf("sample %d: force %.1f N below the underflow limit", i, f)
		}
	}
}

func TestQualityPresets(t *testing.T) {
	if Params(QualityExcellent).DampingRatio <= Params(QualityPoor).DampingRatio {
		t.Error("an excellent damper must damp harder than a poor one")
	}
	// Unknown qualities settle on the good preset.
	if Params("unknown") != Params(QualityGood) {
		t.Error("unknown quality must fall back to good")
	}
}

func TestGenerateCalibrationResidual(t *testing.T) {
	cfg := DefaultConfig()
	sweep := GenerateCalibration(cfg, 10.0)

	if sweep.StaticWeight != 0 {
		t.Errorf("unloaded platform static weight %.1f, want 0", sweep.StaticWeight)
	}
	for i, f := range sweep.TireForce {
		if math.Abs(f) > 10.0+1e-9 {
			t.Fatalf("sample %d: residual %.2f N beyond the 10 N amplitude", i, f)
		}
	}
}
