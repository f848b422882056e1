// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/suspension_tester/internal/config"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsHub fans result messages out to the connected websocket clients.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *wsHub) broadcast(messageType string, payload []byte) {
	msg, err := json.Marshal(struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{Type: messageType, Data: payload})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// RunWeb serves the operator dashboard: a REST view of the latest results
// and a websocket stream of everything as it happens.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastWheels = map[string]json.RawMessage{}
		lastAxle   json.RawMessage
	)
	hub := newWSHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Track latest results and stream them to websocket clients
	token := client.Subscribe(cfg.TopicTestResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var env wheelResultEnvelope
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("web: result unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastWheels[env.Result.WheelID] = append(json.RawMessage(nil), msg.Payload()...)
		mu.Unlock()
		hub.broadcast("wheel_result", msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicFullResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		mu.Lock()
		lastAxle = append(json.RawMessage(nil), msg.Payload()...)
		mu.Unlock()
		hub.broadcast("axle_result", msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicMeasurementsRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
		hub.broadcast("raw_sample", msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Println("web: subscribed to result topics")

	// 3) REST endpoints
	http.HandleFunc("/api/results", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if len(lastWheels) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastWheels); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/axle", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if lastAxle == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(lastAxle)
	})

	http.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","broker_connected":%t}`, client.IsConnected())
	})

	// Test control passthrough: POST body is forwarded to the tester
	// command topic unchanged, after a shape check.
	http.HandleFunc("/api/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var cmd TesterCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			http.Error(w, fmt.Sprintf("bad command: %v", err), http.StatusBadRequest)
			return
		}
		payload, err := json.Marshal(cmd)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if tok := client.Publish(cfg.TopicTesterCommand, 0, false, payload); tok.Wait() && tok.Error() != nil {
			http.Error(w, tok.Error().Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 4) Websocket stream
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// drain client messages until it disconnects
		go func() {
			defer hub.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
