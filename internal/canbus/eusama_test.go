// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package canbus

import (
	"math"
	"testing"

	"github.com/brutella/can"
)

func TestBaseID(t *testing.T) {
	// 'EUS' shifted left by 5.
	want := uint32('E')<<21 | uint32('U')<<13 | uint32('S')<<5
	if BaseID != want {
		t.Fatalf("BaseID 0x%08X, want 0x%08X", BaseID, want)
	}
}

func TestRawDataWireLayout(t *testing.T) {
	frm, err := EncodeRawData(RawData{
		Side:             SideLeft,
		PlatformPosition: 0x0234,
		TireForce:        0x03F1,
		Frequency:        17,
		PhaseShift:       45.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ID(frm) != RawDataLeftID {
		t.Errorf("frame ID 0x%08X, want left raw data", ID(frm))
	}
	if frm.ID&extendedFlag == 0 {
		t.Error("29-bit frames must carry the extended flag")
	}
	// 16-bit values go out little endian.
	if frm.Data[0] != 0x34 || frm.Data[1] != 0x02 {
		t.Errorf("position bytes %02X %02X, want 34 02", frm.Data[0], frm.Data[1])
	}
	if frm.Data[2] != 0xF1 || frm.Data[3] != 0x03 {
		t.Errorf("force bytes %02X %02X, want F1 03", frm.Data[2], frm.Data[3])
	}

	decoded, err := DecodeRawData(frm)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Side != SideLeft || decoded.PlatformPosition != 0x0234 || decoded.TireForce != 0x03F1 {
		t.Errorf("decode mismatch: %+v", decoded)
	}
	if decoded.Frequency != 17 {
		t.Errorf("frequency %d, want 17", decoded.Frequency)
	}
	// One phase byte covers 0-90 degrees; round trip within a quantum.
	if math.Abs(decoded.PhaseShift-45.0) > 90.0/255.0 {
		t.Errorf("phase %.2f°, want ~45", decoded.PhaseShift)
	}
}

func TestRawDataRejectsBadFrames(t *testing.T) {
	if _, err := DecodeRawData(newFrame(MotorStatusID)); err == nil {
		t.Error("motor status frame must not decode as raw data")
	}
	short := newFrame(RawDataRightID)
	short.Length = 4
	if _, err := DecodeRawData(short); err == nil {
		t.Error("short frame must be rejected")
	}
	if _, err := EncodeRawData(RawData{Side: SideBoth}); err == nil {
		t.Error("raw data must belong to exactly one plate")
	}
}

func TestMotorCommandLayout(t *testing.T) {
	frm := EncodeMotorCommand(SideRight, 30)
	if ID(frm) != MotorControlID {
		t.Fatalf("frame ID 0x%08X, want motor control", ID(frm))
	}
	if frm.Data[0] != MotorMaskRight || frm.Data[1] != 30 {
		t.Errorf("payload %02X %02X, want mask 02 duration 1E", frm.Data[0], frm.Data[1])
	}

	side, duration, err := DecodeMotorCommand(frm)
	if err != nil {
		t.Fatal(err)
	}
	if side != SideRight || duration != 30 {
		t.Errorf("decoded %s/%d, want right/30", side, duration)
	}

	// Duration saturates at one byte.
	if frm := EncodeMotorCommand(SideLeft, 1000); frm.Data[1] != 255 {
		t.Errorf("duration byte %d, want 255", frm.Data[1])
	}
	if frm := EncodeMotorCommand(SideStop, 10); frm.Data[0] != MotorMaskStop {
		t.Errorf("stop mask %02X, want 00", frm.Data[0])
	}
}

func TestMotorStatusRoundTrip(t *testing.T) {
	status, err := DecodeMotorStatus(EncodeMotorStatus(MotorStatus{Left: true}))
	if err != nil {
		t.Fatal(err)
	}
	if !status.Left || status.Right {
		t.Errorf("decoded %+v, want left only", status)
	}
}

func TestTopPositionRoundTrip(t *testing.T) {
	pos, err := DecodeTopPosition(EncodeTopPosition(TopPosition{Left: true, Right: true}))
	if err != nil {
		t.Fatal(err)
	}
	if !pos.Left || !pos.Right {
		t.Errorf("decoded %+v, want both plates up", pos)
	}
	if _, err := DecodeTopPosition(newFrame(MotorControlID)); err == nil {
		t.Error("wrong frame type must be rejected")
	}
}

func TestLampCommand(t *testing.T) {
	frm := EncodeLampCommand(true, false, true)
	if frm.Data[0] != LampMaskLeft|LampMaskRight {
		t.Errorf("lamp mask %02X, want %02X", frm.Data[0], LampMaskLeft|LampMaskRight)
	}
}

func TestDisplayCommandLayout(t *testing.T) {
	frm := EncodeDisplayCommand(42, 512, 999)
	diff, left, right, err := DecodeDisplayCommand(frm)
	if err != nil {
		t.Fatal(err)
	}
	if diff != 42 || left != 512 || right != 999 {
		t.Errorf("decoded %d/%d/%d, want 42/512/999", diff, left, right)
	}

	// Out-of-range values saturate instead of wrapping.
	frm = EncodeDisplayCommand(150, -3, 5000)
	diff, left, right, _ = DecodeDisplayCommand(frm)
	if diff != 99 || left != 0 || right != 999 {
		t.Errorf("saturated decode %d/%d/%d, want 99/0/999", diff, left, right)
	}
}

func TestIDStripsExtendedFlag(t *testing.T) {
	frm := can.Frame{ID: RawDataLeftID | extendedFlag}
	if ID(frm) != RawDataLeftID {
		t.Errorf("ID() = 0x%08X, want 0x%08X", ID(frm), RawDataLeftID)
	}
}
