// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package canbus implements the EUSAMA CAN protocol spoken by the test rig
// cabinet: 29-bit extended identifiers derived from the ASCII code 'EUS',
// raw measurement frames from the plates and command frames for motors,
// displays and lamps.
package canbus

import (
	"fmt"

	"github.com/brutella/can"
)

// BaseID is ASCII 'EUS' shifted left by 5 bits.
const BaseID uint32 = 0x08AAAA60

// extendedFlag marks a SocketCAN identifier as 29-bit extended.
const extendedFlag uint32 = 0x80000000

// Frame identifiers relative to BaseID.
const (
	RawDataLeftID  = BaseID + 0x00
	RawDataRightID = BaseID + 0x01
	MotorStatusID  = BaseID + 0x06
	TopPositionID  = BaseID + 0x07

	MotorControlID   = BaseID + 0x11
	DisplayControlID = BaseID + 0x12
	LampControlID    = BaseID + 0x13
)

// Motor selection masks for MotorControlID frames.
const (
	MotorMaskStop  byte = 0x00
	MotorMaskLeft  byte = 0x01
	MotorMaskRight byte = 0x02
	MotorMaskBoth  byte = 0x03
)

// Lamp masks for LampControlID frames.
const (
	LampMaskLeft    byte = 0x01
	LampMaskDriveIn byte = 0x02
	LampMaskRight   byte = 0x04
)

// Top position masks for TopPositionID frames.
const (
	TopPosLeft  byte = 0x01
	TopPosRight byte = 0x02
)

// Side identifies a test rig plate.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideBoth  Side = "both"
	SideStop  Side = "stop"
)

// RawData is one measurement sample from a plate. Position and force are raw
// ADC counts (0-1023); the cabinet scales them before they mean anything
// physical. PhaseShift is the cabinet's own coarse estimate in degrees.
type RawData struct {
	Side             Side
	PlatformPosition uint16
	TireForce        uint16
	Frequency        uint8
	PhaseShift       float64
}

// MotorStatus reports which motors are currently running.
type MotorStatus struct {
	Left  bool
	Right bool
}

// TopPosition reports which plates sit in their top position.
type TopPosition struct {
	Left  bool
	Right bool
}

// ID extracts the 29-bit identifier from a frame.
func ID(frm can.Frame) uint32 {
	return frm.ID &^ extendedFlag
}

// DecodeRawData parses a raw measurement frame from either plate.
func DecodeRawData(frm can.Frame) (RawData, error) {
	var d RawData
	switch ID(frm) {
	case RawDataLeftID:
		d.Side = SideLeft
	case RawDataRightID:
		d.Side = SideRight
	default:
		return d, fmt.Errorf("canbus: frame 0x%08X is not a raw data frame", ID(frm))
	}
	if frm.Length < 8 {
		return d, fmt.Errorf("canbus: raw data frame too short: %d bytes", frm.Length)
	}
	d.PlatformPosition = uint16(frm.Data[1])<<8 | uint16(frm.Data[0])
	d.TireForce = uint16(frm.Data[3])<<8 | uint16(frm.Data[2])
	d.Frequency = frm.Data[4]
	d.PhaseShift = float64(frm.Data[5]) * (90.0 / 255.0)
	return d, nil
}

// EncodeRawData builds a raw measurement frame, used by the simulator when it
// stands in for the cabinet.
func EncodeRawData(d RawData) (can.Frame, error) {
	var id uint32
	switch d.Side {
	case SideLeft:
		id = RawDataLeftID
	case SideRight:
		id = RawDataRightID
	default:
		return can.Frame{}, fmt.Errorf("canbus: raw data side must be left or right, got %q", d.Side)
	}
	phase := d.PhaseShift
	if phase < 0 {
		phase = 0
	}
	if phase > 90 {
		phase = 90
	}
	frm := newFrame(id)
	frm.Data[0] = byte(d.PlatformPosition)
	frm.Data[1] = byte(d.PlatformPosition >> 8)
	frm.Data[2] = byte(d.TireForce)
	frm.Data[3] = byte(d.TireForce >> 8)
	frm.Data[4] = d.Frequency
	frm.Data[5] = byte(phase * 255.0 / 90.0)
	return frm, nil
}

// DecodeMotorStatus parses a motor status frame.
func DecodeMotorStatus(frm can.Frame) (MotorStatus, error) {
	if ID(frm) != MotorStatusID {
		return MotorStatus{}, fmt.Errorf("canbus: frame 0x%08X is not a motor status frame", ID(frm))
	}
	if frm.Length < 1 {
		return MotorStatus{}, fmt.Errorf("canbus: empty motor status frame")
	}
	mask := frm.Data[0]
	return MotorStatus{
		Left:  mask&MotorMaskLeft != 0,
		Right: mask&MotorMaskRight != 0,
	}, nil
}

// EncodeMotorStatus builds a motor status frame.
func EncodeMotorStatus(s MotorStatus) can.Frame {
	frm := newFrame(MotorStatusID)
	if s.Left {
		frm.Data[0] |= MotorMaskLeft
	}
	if s.Right {
		frm.Data[0] |= MotorMaskRight
	}
	return frm
}

// DecodeTopPosition parses a top position frame.
func DecodeTopPosition(frm can.Frame) (TopPosition, error) {
	if ID(frm) != TopPositionID {
		return TopPosition{}, fmt.Errorf("canbus: frame 0x%08X is not a top position frame", ID(frm))
	}
	if frm.Length < 1 {
		return TopPosition{}, fmt.Errorf("canbus: empty top position frame")
	}
	mask := frm.Data[0]
	return TopPosition{
		Left:  mask&TopPosLeft != 0,
		Right: mask&TopPosRight != 0,
	}, nil
}

// EncodeTopPosition builds a top position frame.
func EncodeTopPosition(p TopPosition) can.Frame {
	frm := newFrame(TopPositionID)
	if p.Left {
		frm.Data[0] |= TopPosLeft
	}
	if p.Right {
		frm.Data[0] |= TopPosRight
	}
	return frm
}

// EncodeMotorCommand builds a motor start/stop command. Duration is in
// seconds and saturates at 255.
func EncodeMotorCommand(side Side, duration int) can.Frame {
	var mask byte
	switch side {
	case SideLeft:
		mask = MotorMaskLeft
	case SideRight:
		mask = MotorMaskRight
	case SideBoth:
		mask = MotorMaskBoth
	default:
		mask = MotorMaskStop
	}
	if duration < 0 {
		duration = 0
	}
	if duration > 255 {
		duration = 255
	}
	frm := newFrame(MotorControlID)
	frm.Data[0] = mask
	frm.Data[1] = byte(duration)
	return frm
}

// DecodeMotorCommand parses a motor command frame.
func DecodeMotorCommand(frm can.Frame) (Side, int, error) {
	if ID(frm) != MotorControlID {
		return SideStop, 0, fmt.Errorf("canbus: frame 0x%08X is not a motor command frame", ID(frm))
	}
	if frm.Length < 2 {
		return SideStop, 0, fmt.Errorf("canbus: motor command frame too short: %d bytes", frm.Length)
	}
	var side Side
	switch frm.Data[0] & MotorMaskBoth {
	case MotorMaskLeft:
		side = SideLeft
	case MotorMaskRight:
		side = SideRight
	case MotorMaskBoth:
		side = SideBoth
	default:
		side = SideStop
	}
	return side, int(frm.Data[1]), nil
}

// EncodeLampCommand builds a lamp control frame.
func EncodeLampCommand(left, driveIn, right bool) can.Frame {
	frm := newFrame(LampControlID)
	if left {
		frm.Data[0] |= LampMaskLeft
	}
	if driveIn {
		frm.Data[0] |= LampMaskDriveIn
	}
	if right {
		frm.Data[0] |= LampMaskRight
	}
	return frm
}

// EncodeDisplayCommand builds a display control frame. The difference display
// holds 0-99, the side displays 0-999; out-of-range values saturate.
func EncodeDisplayCommand(diff, left, right int) can.Frame {
	diff = clampInt(diff, 0, 99)
	left = clampInt(left, 0, 999)
	right = clampInt(right, 0, 999)

	frm := newFrame(DisplayControlID)
	frm.Data[0] = byte(diff)
	frm.Data[2] = byte(left & 0xFF)
	frm.Data[3] = byte(left >> 8)
	frm.Data[5] = byte(right & 0xFF)
	frm.Data[6] = byte(right >> 8)
	return frm
}

// DecodeDisplayCommand parses a display control frame.
func DecodeDisplayCommand(frm can.Frame) (diff, left, right int, err error) {
	if ID(frm) != DisplayControlID {
		return 0, 0, 0, fmt.Errorf("canbus: frame 0x%08X is not a display command frame", ID(frm))
	}
	if frm.Length < 8 {
		return 0, 0, 0, fmt.Errorf("canbus: display command frame too short: %d bytes", frm.Length)
	}
	diff = int(frm.Data[0])
	left = int(frm.Data[3])<<8 | int(frm.Data[2])
	right = int(frm.Data[6])<<8 | int(frm.Data[5])
	return diff, left, right, nil
}

func newFrame(id uint32) can.Frame {
	return can.Frame{
		ID:     id | extendedFlag,
		Length: 8,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
