// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/suspension_tester/internal/config"
	"github.com/relabs-tech/suspension_tester/internal/egea"
	"github.com/relabs-tech/suspension_tester/internal/measurement"
)

// pendingAxle buffers wheel sweeps until both sides of an axle have arrived.
type pendingAxle struct {
	left     *measurement.SampleSet
	right    *measurement.SampleSet
	vehicle  egea.VehicleType
	received time.Time
}

// pendingAxleTimeout drops a half-complete axle when the second wheel never
// shows up, so a stale buffer cannot pair with the next vehicle.
const pendingAxleTimeout = 5 * time.Minute

// processor wires the analysis engine to the MQTT bus.
type processor struct {
	engine *egea.Engine
	client mqtt.Client
	cfg    *config.Config

	mu      sync.Mutex
	pending map[string]*pendingAxle
}

func RunProcessor() error {
	log.Println("starting suspension test processor")

	cfg := config.Get()

	engine, err := egea.NewEngine(cfg.EGEAParams())
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProcessor)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	p := &processor{
		engine:  engine,
		client:  client,
		cfg:     cfg,
		pending: make(map[string]*pendingAxle),
	}

	token := client.Subscribe(cfg.TopicRawDataComplete, 0, p.onRawDataComplete)
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("processor: subscribed to %s", cfg.TopicRawDataComplete)

	// heartbeat
	ticker := time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	defer ticker.Stop()
	go func() {
		for t := range ticker.C {
			hb := Heartbeat{Service: "processor", Status: "alive", Timestamp: t}
			payload, err := json.Marshal(hb)
			if err != nil {
				log.Printf("processor: heartbeat marshal error: %v", err)
				continue
			}
			client.Publish(cfg.TopicHeartbeat, 0, false, payload)
			p.expirePending(t)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("processor: shutting down")
	return nil
}

func (p *processor) onRawDataComplete(_ mqtt.Client, msg mqtt.Message) {
	var data RawDataComplete
	if err := json.Unmarshal(msg.Payload(), &data); err != nil {
		log.Printf("processor: raw data unmarshal error: %v", err)
		return
	}

	if data.TestID == "" {
		data.TestID = uuid.NewString()
	}
	vt := p.cfg.Vehicle()
	if data.VehicleType == string(egea.VehicleN1) {
		vt = egea.VehicleN1
	} else if data.VehicleType == string(egea.VehicleM1) {
		vt = egea.VehicleM1
	}

	sample := data.Measurement
	result := p.engine.RunWheelTest(&sample, vt)

	log.Printf("processor: wheel %s test %s: pass=%v valid=%v",
		sample.WheelID, data.TestID, result.OverallPass, result.PhaseShift.IsValid())

	p.publish(p.cfg.TopicTestResult, wheelResultEnvelope{
		TestID: data.TestID,
		AxleID: data.AxleID,
		Result: result,
	})

	if data.AxleID != "" {
		p.collectAxle(data.AxleID, &sample, vt)
	}
}

type wheelResultEnvelope struct {
	TestID string          `json:"test_id"`
	AxleID string          `json:"axle_id,omitempty"`
	Result egea.TestResult `json:"result"`
}

type axleResultEnvelope struct {
	TestID string          `json:"test_id"`
	Result egea.AxleResult `json:"result"`
}

// collectAxle pairs left and right sweeps of the same axle; once both are
// present the axle evaluation with its relative criteria is published.
func (p *processor) collectAxle(axleID string, sample *measurement.SampleSet, vt egea.VehicleType) {
	p.mu.Lock()
	pend, ok := p.pending[axleID]
	if !ok {
		pend = &pendingAxle{vehicle: vt, received: time.Now()}
		p.pending[axleID] = pend
	}
	if isLeftWheel(sample.WheelID) {
		pend.left = sample
	} else {
		pend.right = sample
	}
	complete := pend.left != nil && pend.right != nil
	if complete {
		delete(p.pending, axleID)
	}
	p.mu.Unlock()

	if !complete {
		return
	}

	axleResult, err := p.engine.RunAxleTest(axleID, pend.left, pend.right, pend.vehicle)
	if err != nil {
		log.Printf("processor: axle %s evaluation error: %v", axleID, err)
		return
	}
	log.Printf("processor: axle %s: pass=%v", axleID, axleResult.OverallPass)
	p.publish(p.cfg.TopicFullResult, axleResultEnvelope{
		TestID: uuid.NewString(),
		Result: axleResult,
	})
}

func (p *processor) expirePending(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pend := range p.pending {
		if now.Sub(pend.received) > pendingAxleTimeout {
			log.Printf("processor: dropping incomplete axle %s after timeout", id)
			delete(p.pending, id)
		}
	}
}

func (p *processor) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("processor: marshal error (%s): %v", topic, err)
		return
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("processor: MQTT publish error (%s): %v", topic, token.Error())
	}
}

// isLeftWheel maps a wheel identifier to a plate side. Both the short "FL"
// and the long "front_left" forms appear on the bus.
func isLeftWheel(wheelID string) bool {
	id := strings.ToLower(wheelID)
	return strings.HasSuffix(id, "l") && !strings.HasSuffix(id, "r") || strings.Contains(id, "left")
}
