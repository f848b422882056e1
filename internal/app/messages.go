// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app contains the services of the suspension tester: the processor
// that turns raw sweeps into test verdicts, the cabinet bridge, the
// simulator, and the console and web frontends. They talk to each other
// exclusively over MQTT.
package app

import (
	"time"

	"github.com/relabs-tech/suspension_tester/internal/measurement"
)

// RawDataComplete is the message carrying one finished wheel sweep, published
// by the bridge or the simulator and consumed by the processor.
type RawDataComplete struct {
	TestID      string                `json:"test_id,omitempty"` // assigned by the processor when empty
	AxleID      string                `json:"axle_id"`
	VehicleType string                `json:"vehicle_type"` // "M1" or "N1", empty uses the processor default
	Timestamp   time.Time             `json:"timestamp"`
	Measurement measurement.SampleSet `json:"measurement"`
}

// RawSample is a single live measurement point streamed while a sweep runs,
// for dashboards that want to watch the test in progress.
type RawSample struct {
	WheelID          string  `json:"wheel_id"`
	Time             float64 `json:"time"`              // s since sweep start
	PlatformPosition float64 `json:"platform_position"` // mm
	TireForce        float64 `json:"tire_force"`        // N
	Frequency        float64 `json:"frequency"`         // Hz, cabinet estimate
}

// Heartbeat is the liveness message every service publishes periodically.
type Heartbeat struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SimulatorCommand steers the simulator service.
type SimulatorCommand struct {
	Command string `json:"command"`           // "start", "stop", "set_quality"
	Quality string `json:"quality,omitempty"` // for set_quality
}

// TesterCommand is a cabinet command forwarded onto the CAN bus by the
// bridge.
type TesterCommand struct {
	Command  string `json:"command"` // "start_motor", "stop_motor", "set_lamp", "set_display"
	Side     string `json:"side,omitempty"`
	Duration int    `json:"duration,omitempty"` // s, motor run time

	LampLeft    bool `json:"lamp_left,omitempty"`
	LampDriveIn bool `json:"lamp_drive_in,omitempty"`
	LampRight   bool `json:"lamp_right,omitempty"`

	DisplayDiff  int `json:"display_diff,omitempty"`
	DisplayLeft  int `json:"display_left,omitempty"`
	DisplayRight int `json:"display_right,omitempty"`
}
