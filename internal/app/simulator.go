// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/suspension_tester/internal/config"
	"github.com/relabs-tech/suspension_tester/internal/dsp"
	"github.com/relabs-tech/suspension_tester/internal/measurement"
	"github.com/relabs-tech/suspension_tester/internal/simulator"
)

// RunSimulator publishes synthetic EGEA sweeps for both front wheels at the
// configured interval, standing in for the cabinet when no rig is attached.
// It listens on the simulator command topic for start/stop and damper
// quality changes.
func RunSimulator() error {
	log.Println("starting suspension test simulator")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSimulator)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	var (
		mu      sync.Mutex
		running = true
		quality = simulator.Quality(cfg.SimulatorQuality)
	)

	token := client.Subscribe(cfg.TopicSimulatorCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var cmd SimulatorCommand
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Printf("simulator: command unmarshal error: %v", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch cmd.Command {
		case "start":
			running = true
			log.Println("simulator: started")
		case "stop":
			running = false
			log.Println("simulator: stopped")
		case "set_quality":
			quality = simulator.Quality(cmd.Quality)
			log.Printf("simulator: damper quality set to %s", cmd.Quality)
		default:
			log.Printf("simulator: unknown command %q", cmd.Command)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("simulator: subscribed to %s", cfg.TopicSimulatorCommand)

	ticker := time.NewTicker(time.Duration(cfg.SimulatorInterval) * time.Millisecond)
	defer ticker.Stop()

	heartbeat := time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	defer heartbeat.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	seed := int64(1)
	for {
		select {
		case <-sigCh:
			log.Println("simulator: shutting down")
			return nil

		case t := <-heartbeat.C:
			hb := Heartbeat{Service: "simulator", Status: "alive", Timestamp: t}
			if payload, err := json.Marshal(hb); err == nil {
				client.Publish(cfg.TopicHeartbeat, 0, false, payload)
			}

		case <-ticker.C:
			mu.Lock()
			active := running
			q := quality
			mu.Unlock()
			if !active {
				continue
			}

			axleID := uuid.NewString()
			for _, wheel := range []string{"FL", "FR"} {
				seed++
				publishSimulatedRun(client, cfg, q, wheel, axleID, seed)
			}
		}
	}
}

func publishSimulatedRun(client mqtt.Client, cfg *config.Config, q simulator.Quality, wheelID, axleID string, seed int64) {
	simCfg := simulator.DefaultConfig()
	simCfg.Duration = cfg.SimulatorDuration
	simCfg.SampleRate = cfg.SimulatorSampleRate
	simCfg.StartFreq = cfg.SimulatorStartFreq
	simCfg.EndFreq = cfg.SimulatorEndFreq
	simCfg.StaticWeight = cfg.SimulatorStaticWeight
	simCfg.NoiseStdDev = cfg.SimulatorNoiseStdDev
	simCfg.Quality = q
	simCfg.Seed = seed

	sweep := simulator.Generate(simCfg)

	// Live stream: a decimated view of the sweep, with the dominant platform
	// frequency over a short sliding window standing in for the cabinet's
	// own frequency byte.
	const stride = 100
	const window = 512
	for i := 0; i < len(sweep.Time); i += stride {
		sample := RawSample{
			WheelID:          wheelID,
			Time:             sweep.Time[i],
			PlatformPosition: sweep.PlatformPosition[i],
			TireForce:        sweep.TireForce[i],
		}
		if i+window <= len(sweep.Time) {
			freq, _ := dsp.DominantFrequency(sweep.PlatformPosition[i:i+window],
				simCfg.SampleRate, 1.0, simCfg.StartFreq+5.0)
			sample.Frequency = freq
		}
		if payload, err := json.Marshal(sample); err == nil {
			client.Publish(cfg.TopicMeasurementsRaw, 0, false, payload)
		}
	}

	data := RawDataComplete{
		AxleID:      axleID,
		VehicleType: cfg.VehicleType,
		Timestamp:   time.Now(),
		Measurement: measurement.SampleSet{
			WheelID:          wheelID,
			PlatformPosition: sweep.PlatformPosition,
			TireForce:        sweep.TireForce,
			Time:             sweep.Time,
			StaticWeight:     sweep.StaticWeight,
		},
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("simulator: marshal error: %v", err)
		return
	}
	if token := client.Publish(cfg.TopicRawDataComplete, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("simulator: MQTT publish error: %v", token.Error())
		return
	}
	log.Printf("simulator: published %s sweep for wheel %s (%s damper)", axleID, wheelID, q)
}
