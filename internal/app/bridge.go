// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brutella/can"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/suspension_tester/internal/canbus"
	"github.com/relabs-tech/suspension_tester/internal/config"
	"github.com/relabs-tech/suspension_tester/internal/measurement"
)

// ADC scaling of the cabinet's raw counts. The plate position ADC spans the
// full +-3 mm stroke, the force ADC tops out at 2 kN.
const (
	positionCenterCounts = 511.5
	positionScale        = 6.0 / 1023.0  // mm per count
	forceScale           = 2000.0 / 1023.0 // N per count
)

// staticWindow is how many idle force samples feed the static weight
// estimate before a motor run starts.
const staticWindow = 100

// frameSender abstracts the transport back to the cabinet.
type frameSender interface {
	Send(frm can.Frame) error
}

// wheelCollector accumulates one side's samples during a motor run.
type wheelCollector struct {
	wheelID string

	running bool
	start   time.Time

	position []float64
	force    []float64
	times    []float64

	idleForce []float64 // ring of recent idle samples, static weight source
}

func (c *wheelCollector) add(d canbus.RawData, now time.Time) {
	pos := (float64(d.PlatformPosition) - positionCenterCounts) * positionScale
	force := float64(d.TireForce) * forceScale

	if !c.running {
		c.idleForce = append(c.idleForce, force)
		if len(c.idleForce) > staticWindow {
			c.idleForce = c.idleForce[len(c.idleForce)-staticWindow:]
		}
		return
	}

	c.position = append(c.position, pos)
	c.force = append(c.force, force)
	c.times = append(c.times, now.Sub(c.start).Seconds())
}

func (c *wheelCollector) begin(now time.Time) {
	c.running = true
	c.start = now
	c.position = c.position[:0]
	c.force = c.force[:0]
	c.times = c.times[:0]
}

// finish closes the run and returns the assembled sweep, or nil when nothing
// was collected.
func (c *wheelCollector) finish() *measurement.SampleSet {
	c.running = false
	if len(c.times) == 0 {
		return nil
	}
	staticWeight := 0.0
	for _, f := range c.idleForce {
		staticWeight += f
	}
	if n := len(c.idleForce); n > 0 {
		staticWeight /= float64(n)
	}
	set := &measurement.SampleSet{
		WheelID:          c.wheelID,
		PlatformPosition: append([]float64(nil), c.position...),
		TireForce:        append([]float64(nil), c.force...),
		Time:             append([]float64(nil), c.times...),
		StaticWeight:     staticWeight,
	}
	return set
}

// bridge moves EUSAMA CAN traffic onto MQTT and cabinet commands back.
type bridge struct {
	client mqtt.Client
	cfg    *config.Config
	sender frameSender

	mu     sync.Mutex
	axleID string
	left   wheelCollector
	right  wheelCollector
}

// RunBridge connects the cabinet to the MQTT bus. It prefers the SocketCAN
// interface; when that cannot be opened it falls back to the serial adapter.
func RunBridge() error {
	log.Println("starting cabinet bridge")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDBridge)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	b := &bridge{
		client: client,
		cfg:    cfg,
		left:   wheelCollector{wheelID: "FL"},
		right:  wheelCollector{wheelID: "FR"},
	}

	bus, err := can.NewBusForInterfaceWithName(cfg.CANInterface)
	if err != nil {
		log.Printf("bridge: CAN interface %s unavailable (%v), falling back to serial", cfg.CANInterface, err)
		if cfg.SerialPort == "" {
			return fmt.Errorf("bridge: no CAN interface and no SERIAL_PORT configured")
		}
		port, err := serial.Open(serial.OpenOptions{
			PortName:        cfg.SerialPort,
			BaudRate:        cfg.SerialBaudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		})
		if err != nil {
			return fmt.Errorf("bridge: serial open: %w", err)
		}
		defer port.Close()
		log.Printf("bridge: serial adapter opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

		b.sender = &serialSender{port: port}
		go readSerialFrames(port, b.handleFrame)
	} else {
		log.Printf("bridge: connected to CAN interface %s", cfg.CANInterface)
		bus.SubscribeFunc(b.handleFrame)
		b.sender = busSender{bus: bus}
		go func() {
			if err := bus.ConnectAndPublish(); err != nil {
				log.Fatalf("bridge: CAN receive loop error: %v", err)
			}
		}()
		defer bus.Disconnect()
	}

	token := client.Subscribe(cfg.TopicTesterCommand, 0, b.onTesterCommand)
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("bridge: subscribed to %s", cfg.TopicTesterCommand)

	ticker := time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	defer ticker.Stop()
	go func() {
		for t := range ticker.C {
			hb := Heartbeat{Service: "bridge", Status: "alive", Timestamp: t}
			if payload, err := json.Marshal(hb); err == nil {
				client.Publish(cfg.TopicHeartbeat, 0, false, payload)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("bridge: shutting down")
	return nil
}

func (b *bridge) handleFrame(frm can.Frame) {
	now := time.Now()
	switch canbus.ID(frm) {
	case canbus.RawDataLeftID, canbus.RawDataRightID:
		data, err := canbus.DecodeRawData(frm)
		if err != nil {
			log.Printf("bridge: raw data decode error: %v", err)
			return
		}
		b.onRawData(data, now)

	case canbus.MotorStatusID:
		status, err := canbus.DecodeMotorStatus(frm)
		if err != nil {
			log.Printf("bridge: motor status decode error: %v", err)
			return
		}
		b.onMotorStatus(status, now)

	case canbus.TopPositionID:
		// Plate top reports only matter to the cabinet's own sequencing.
	}
}

func (b *bridge) onRawData(data canbus.RawData, now time.Time) {
	b.mu.Lock()
	col := &b.left
	if data.Side == canbus.SideRight {
		col = &b.right
	}
	col.add(data, now)
	running := col.running
	var t float64
	if running {
		t = now.Sub(col.start).Seconds()
	}
	wheelID := col.wheelID
	b.mu.Unlock()

	if !running {
		return
	}
	sample := RawSample{
		WheelID:          wheelID,
		Time:             t,
		PlatformPosition: (float64(data.PlatformPosition) - positionCenterCounts) * positionScale,
		TireForce:        float64(data.TireForce) * forceScale,
		Frequency:        float64(data.Frequency),
	}
	if payload, err := json.Marshal(sample); err == nil {
		b.client.Publish(b.cfg.TopicMeasurementsRaw, 0, false, payload)
	}
}

// onMotorStatus tracks run transitions: a motor starting opens a collection
// window for its side, a motor stopping closes it and ships the sweep.
func (b *bridge) onMotorStatus(status canbus.MotorStatus, now time.Time) {
	b.mu.Lock()
	if b.axleID == "" {
		b.axleID = fmt.Sprintf("axle-%d", now.UnixMilli())
	}
	axleID := b.axleID

	var finished []*measurement.SampleSet
	for _, side := range []struct {
		col     *wheelCollector
		running bool
	}{
		{&b.left, status.Left},
		{&b.right, status.Right},
	} {
		switch {
		case side.running && !side.col.running:
			log.Printf("bridge: motor start, collecting %s", side.col.wheelID)
			side.col.begin(now)
		case !side.running && side.col.running:
			if set := side.col.finish(); set != nil {
				finished = append(finished, set)
			}
		}
	}
	bothIdle := !b.left.running && !b.right.running
	if bothIdle && len(finished) > 0 {
		b.axleID = ""
	}
	b.mu.Unlock()

	for _, set := range finished {
		log.Printf("bridge: run finished for %s: %d samples, static weight %.0f N",
			set.WheelID, len(set.Time), set.StaticWeight)
		data := RawDataComplete{
			AxleID:      axleID,
			VehicleType: b.cfg.VehicleType,
			Timestamp:   now,
			Measurement: *set,
		}
		payload, err := json.Marshal(data)
		if err != nil {
			log.Printf("bridge: marshal error: %v", err)
			continue
		}
		if token := b.client.Publish(b.cfg.TopicRawDataComplete, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("bridge: MQTT publish error: %v", token.Error())
		}
	}
}

func (b *bridge) onTesterCommand(_ mqtt.Client, msg mqtt.Message) {
	var cmd TesterCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("bridge: tester command unmarshal error: %v", err)
		return
	}

	var frm can.Frame
	switch cmd.Command {
	case "start_motor":
		frm = canbus.EncodeMotorCommand(canbus.Side(cmd.Side), cmd.Duration)
	case "stop_motor":
		frm = canbus.EncodeMotorCommand(canbus.SideStop, 0)
	case "set_lamp":
		frm = canbus.EncodeLampCommand(cmd.LampLeft, cmd.LampDriveIn, cmd.LampRight)
	case "set_display":
		frm = canbus.EncodeDisplayCommand(cmd.DisplayDiff, cmd.DisplayLeft, cmd.DisplayRight)
	default:
		log.Printf("bridge: unknown tester command %q", cmd.Command)
		return
	}

	if err := b.sender.Send(frm); err != nil {
		log.Printf("bridge: send error (%s): %v", cmd.Command, err)
		return
	}
	log.Printf("bridge: forwarded %s to cabinet", cmd.Command)
}

type busSender struct {
	bus *can.Bus
}

func (s busSender) Send(frm can.Frame) error {
	return s.bus.Publish(frm)
}

// Serial adapter framing: 0xAA, 4-byte big-endian identifier, length byte,
// 8 data bytes. 14 bytes per frame, fixed size.
const (
	serialFrameStart = 0xAA
	serialFrameSize  = 14
)

type serialSender struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

func (s *serialSender) Send(frm can.Frame) error {
	buf := make([]byte, serialFrameSize)
	buf[0] = serialFrameStart
	binary.BigEndian.PutUint32(buf[1:5], frm.ID)
	buf[5] = frm.Length
	copy(buf[6:], frm.Data[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.port.Write(buf)
	return err
}

// readSerialFrames decodes the adapter stream, resynchronizing on the start
// byte after any garbage.
func readSerialFrames(port io.Reader, handle func(can.Frame)) {
	buf := make([]byte, 0, 4*serialFrameSize)
	chunk := make([]byte, 256)
	for {
		n, err := port.Read(chunk)
		if err != nil {
			log.Printf("bridge: serial read error: %v", err)
			return
		}
		buf = append(buf, chunk[:n]...)

		for {
			// drop bytes until a start marker
			start := 0
			for start < len(buf) && buf[start] != serialFrameStart {
				start++
			}
			buf = buf[start:]
			if len(buf) < serialFrameSize {
				break
			}

			var frm can.Frame
			frm.ID = binary.BigEndian.Uint32(buf[1:5])
			frm.Length = buf[5]
			copy(frm.Data[:], buf[6:serialFrameSize])
			buf = buf[serialFrameSize:]

			if frm.Length > 8 {
				// framing slipped, resync on the next marker
				continue
			}
			handle(frm)
		}
	}
}
