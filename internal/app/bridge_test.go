// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/brutella/can"

	"github.com/relabs-tech/suspension_tester/internal/canbus"
)

func TestWheelCollectorRun(t *testing.T) {
	col := wheelCollector{wheelID: "FL"}
	start := time.Now()

	// Idle samples feed the static weight estimate: 256 counts ~ 500 N.
	for i := 0; i < 20; i++ {
		col.add(canbus.RawData{Side: canbus.SideLeft, PlatformPosition: 512, TireForce: 256}, start)
	}

	col.begin(start)
	for i := 0; i < 10; i++ {
		col.add(canbus.RawData{Side: canbus.SideLeft, PlatformPosition: 600, TireForce: 300},
			start.Add(time.Duration(i+1)*time.Millisecond))
	}

	set := col.finish()
	if set == nil {
		t.Fatal("expected an assembled sweep")
	}
	if set.WheelID != "FL" || len(set.Time) != 10 {
		t.Fatalf("got %s with %d samples, want FL with 10", set.WheelID, len(set.Time))
	}

	wantStatic := 256 * forceScale
	if math.Abs(set.StaticWeight-wantStatic) > 1e-9 {
		t.Errorf("static weight %.2f N, want %.2f", set.StaticWeight, wantStatic)
	}
	wantPos := (600 - positionCenterCounts) * positionScale
	if math.Abs(set.PlatformPosition[0]-wantPos) > 1e-9 {
		t.Errorf("position %.3f mm, want %.3f", set.PlatformPosition[0], wantPos)
	}
	for i := 1; i < len(set.Time); i++ {
		if set.Time[i] <= set.Time[i-1] {
			t.Fatalf("time not increasing at %d", i)
		}
	}

	// Nothing collected while idle.
	idle := wheelCollector{wheelID: "FR"}
	idle.add(canbus.RawData{Side: canbus.SideRight, TireForce: 256}, start)
	if set := idle.finish(); set != nil {
		t.Error("idle collector must not assemble a sweep")
	}
}

func TestSerialFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sender := &serialSender{port: nopCloser{&buf}}

	want := canbus.EncodeMotorCommand(canbus.SideLeft, 12)
	if err := sender.Send(want); err != nil {
		t.Fatal(err)
	}
	// Garbage before the frame has to be skipped by the resync.
	stream := append([]byte{0x00, 0x13, 0x37}, buf.Bytes()...)

	var got []can.Frame
	readSerialFrames(bytes.NewReader(stream), func(frm can.Frame) {
		got = append(got, frm)
	})

	if len(got) != 1 {
		t.Fatalf("decoded %d frames, want 1", len(got))
	}
	if got[0].ID != want.ID || got[0].Data != want.Data {
		t.Errorf("frame mangled in transit: %+v vs %+v", got[0], want)
	}
	side, duration, err := canbus.DecodeMotorCommand(got[0])
	if err != nil {
		t.Fatal(err)
	}
	if side != canbus.SideLeft || duration != 12 {
		t.Errorf("decoded %s/%d, want left/12", side, duration)
	}
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestIsLeftWheel(t *testing.T) {
	cases := map[string]bool{
		"FL":          true,
		"RL":          true,
		"front_left":  true,
		"FR":          false,
		"RR":          false,
		"front_right": false,
	}
	for id, want := range cases {
		if got := isLeftWheel(id); got != want {
			t.Errorf("isLeftWheel(%q) = %v, want %v", id, got, want)
		}
	}
}
