// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/suspension_tester/internal/config"
)

// RunConsole subscribes to the result and liveness topics and prints them as
// compact operator lines.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	resultToken := client.Subscribe(cfg.TopicTestResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var env wheelResultEnvelope
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("console: result unmarshal error: %v", err)
			return
		}
		r := env.Result

		verdict := "FAIL"
		if r.OverallPass {
			verdict = "PASS"
		}
		phiMin := "  n/a"
		if r.PhaseShift.MinPhaseShift != nil {
			phiMin = fmt.Sprintf("%5.1f", *r.PhaseShift.MinPhaseShift)
		}
		fmt.Printf(
			"[WHEEL] %-3s %s  phi_min=%s°  rfa_max=%5.1f%%  rig=%5.1f N/mm  Fst=%6.0f N\n",
			r.WheelID, verdict, phiMin,
			r.ForceAnalysis.RFAMax, r.Rigidity.Rigidity, r.PhaseShift.StaticWeight,
		)
		for _, e := range r.Errors {
			fmt.Printf("[WHEEL] %-3s       %s\n", r.WheelID, e)
		}
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTestResult)

	axleToken := client.Subscribe(cfg.TopicFullResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var env axleResultEnvelope
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("console: axle result unmarshal error: %v", err)
			return
		}
		a := env.Result

		verdict := "FAIL"
		if a.OverallPass {
			verdict = "PASS"
		}
		dPhi := "  n/a"
		if a.DPhiMin != nil {
			dPhi = fmt.Sprintf("%5.1f", *a.DPhiMin)
		}
		fmt.Printf(
			"[AXLE ] %-8s %s  weight=%6.0f N  d_phi_min=%s%%  L=%v R=%v\n",
			a.AxleID, verdict, a.AxleWeight, dPhi,
			a.LeftWheel.OverallPass, a.RightWheel.OverallPass,
		)
	})
	axleToken.Wait()
	if axleToken.Error() != nil {
		return axleToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicFullResult)

	// Live samples arrive at wheel rate; throttle to one line per interval.
	logInterval := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var lastLive time.Time
	liveToken := client.Subscribe(cfg.TopicMeasurementsRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if time.Since(lastLive) < logInterval {
			return
		}
		var s RawSample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		lastLive = time.Now()
		fmt.Printf(
			"[LIVE ] %-3s t=%6.2f s  pos=%6.2f mm  F=%6.0f N  f=%5.1f Hz\n",
			s.WheelID, s.Time, s.PlatformPosition, s.TireForce, s.Frequency,
		)
	})
	liveToken.Wait()
	if liveToken.Error() != nil {
		return liveToken.Error()
	}

	hbToken := client.Subscribe(cfg.TopicHeartbeat, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var hb Heartbeat
		if err := json.Unmarshal(msg.Payload(), &hb); err != nil {
			return
		}
		fmt.Printf("[BEAT ] %-10s %s\n", hb.Service, hb.Status)
	})
	hbToken.Wait()
	if hbToken.Error() != nil {
		return hbToken.Error()
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
