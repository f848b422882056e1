package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/suspension_tester/internal/egea"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDProcessor string
	MQTTClientIDSimulator string
	MQTTClientIDBridge    string
	MQTTClientIDConsole   string
	MQTTClientIDWeb       string

	// Topics
	TopicRawDataComplete  string
	TopicMeasurementsRaw  string
	TopicTestResult       string
	TopicFullResult       string
	TopicSimulatorCommand string
	TopicTesterCommand    string
	TopicHeartbeat        string

	// CAN bridge
	CANInterface string
	// Serial fallback used when the CAN interface is unavailable.
	SerialPort     string
	SerialBaudRate uint

	// Vehicle class under test: "M1" or "N1"
	VehicleType string

	// Simulator
	SimulatorQuality      string
	SimulatorDuration     float64 // seconds
	SimulatorSampleRate   float64 // Hz
	SimulatorStartFreq    float64 // Hz
	SimulatorEndFreq      float64 // Hz
	SimulatorStaticWeight float64 // N
	SimulatorNoiseStdDev  float64 // N
	SimulatorInterval     int     // milliseconds between published runs

	// Timing
	ConsoleLogInterval int // milliseconds
	HeartbeatInterval  int // milliseconds

	// Web Server
	WebServerPort int

	// EGEA parameter overrides; zero keeps the guideline default.
	EGEAPhaseShiftMinM1   float64
	EGEAPhaseShiftMinN1   float64
	EGEAPlatformAmplitude float64
	EGEARigidityLow       float64
	EGEARigidityHigh      float64
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config preloaded with the values every installation
// shares; the file only has to name the broker and whatever deviates.
func defaults() *Config {
	return &Config{
		MQTTClientIDProcessor: "suspension_processor",
		MQTTClientIDSimulator: "suspension_simulator",
		MQTTClientIDBridge:    "suspension_bridge",
		MQTTClientIDConsole:   "suspension_console",
		MQTTClientIDWeb:       "suspension_web",

		TopicRawDataComplete:  "suspension/raw_data/complete",
		TopicMeasurementsRaw:  "suspension/measurements/raw",
		TopicTestResult:       "suspension/test/result",
		TopicFullResult:       "suspension/test/full_result",
		TopicSimulatorCommand: "suspension/simulator/command",
		TopicTesterCommand:    "suspension/tester/command",
		TopicHeartbeat:        "suspension/system/heartbeat",

		CANInterface:   "can0",
		SerialBaudRate: 115200,

		VehicleType: "M1",

		SimulatorQuality:      "good",
		SimulatorDuration:     15.0,
		SimulatorSampleRate:   1000.0,
		SimulatorStartFreq:    25.0,
		SimulatorEndFreq:      5.0,
		SimulatorStaticWeight: 500.0,
		SimulatorInterval:     30000,

		ConsoleLogInterval: 1000,
		HeartbeatInterval:  5000,
		WebServerPort:      8080,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PROCESSOR":
		c.MQTTClientIDProcessor = value
	case "MQTT_CLIENT_ID_SIMULATOR":
		c.MQTTClientIDSimulator = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_RAW_DATA_COMPLETE":
		c.TopicRawDataComplete = value
	case "TOPIC_MEASUREMENTS_RAW":
		c.TopicMeasurementsRaw = value
	case "TOPIC_TEST_RESULT":
		c.TopicTestResult = value
	case "TOPIC_FULL_RESULT":
		c.TopicFullResult = value
	case "TOPIC_SIMULATOR_COMMAND":
		c.TopicSimulatorCommand = value
	case "TOPIC_TESTER_COMMAND":
		c.TopicTesterCommand = value
	case "TOPIC_HEARTBEAT":
		c.TopicHeartbeat = value

	// CAN bridge
	case "CAN_INTERFACE":
		c.CANInterface = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = uint(rate)

	// Vehicle class
	case "VEHICLE_TYPE":
		if value != "M1" && value != "N1" {
			return fmt.Errorf("VEHICLE_TYPE must be M1 or N1, got %q", value)
		}
		c.VehicleType = value

	// Simulator
	case "SIMULATOR_QUALITY":
		switch value {
		case "excellent", "good", "acceptable", "poor":
			c.SimulatorQuality = value
		default:
			return fmt.Errorf("SIMULATOR_QUALITY must be excellent, good, acceptable or poor, got %q", value)
		}
	case "SIMULATOR_DURATION":
		return setFloat(&c.SimulatorDuration, key, value)
	case "SIMULATOR_SAMPLE_RATE":
		return setFloat(&c.SimulatorSampleRate, key, value)
	case "SIMULATOR_START_FREQ":
		return setFloat(&c.SimulatorStartFreq, key, value)
	case "SIMULATOR_END_FREQ":
		return setFloat(&c.SimulatorEndFreq, key, value)
	case "SIMULATOR_STATIC_WEIGHT":
		return setFloat(&c.SimulatorStaticWeight, key, value)
	case "SIMULATOR_NOISE_STDDEV":
		return setFloat(&c.SimulatorNoiseStdDev, key, value)
	case "SIMULATOR_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SIMULATOR_INTERVAL %q: %w", value, err)
		}
		c.SimulatorInterval = interval

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval
	case "HEARTBEAT_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HEARTBEAT_INTERVAL %q: %w", value, err)
		}
		c.HeartbeatInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// EGEA overrides
	case "EGEA_PHASE_SHIFT_MIN_M1":
		return setFloat(&c.EGEAPhaseShiftMinM1, key, value)
	case "EGEA_PHASE_SHIFT_MIN_N1":
		return setFloat(&c.EGEAPhaseShiftMinN1, key, value)
	case "EGEA_PLATFORM_AMPLITUDE":
		return setFloat(&c.EGEAPlatformAmplitude, key, value)
	case "EGEA_RIGIDITY_LOW":
		return setFloat(&c.EGEARigidityLow, key, value)
	case "EGEA_RIGIDITY_HIGH":
		return setFloat(&c.EGEARigidityHigh, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.SimulatorDuration <= 0 {
		return fmt.Errorf("SIMULATOR_DURATION must be positive")
	}
	if c.SimulatorSampleRate <= 0 {
		return fmt.Errorf("SIMULATOR_SAMPLE_RATE must be positive")
	}
	if c.SimulatorEndFreq >= c.SimulatorStartFreq {
		return fmt.Errorf("SIMULATOR_END_FREQ must be below SIMULATOR_START_FREQ")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

// EGEAParams builds the analysis parameter set: the guideline defaults with
// any configured overrides applied on top.
func (c *Config) EGEAParams() egea.Params {
	p := egea.DefaultParams()
	if c.EGEAPhaseShiftMinM1 > 0 {
		p.PhaseShiftMinM1 = c.EGEAPhaseShiftMinM1
	}
	if c.EGEAPhaseShiftMinN1 > 0 {
		p.PhaseShiftMinN1 = c.EGEAPhaseShiftMinN1
	}
	if c.EGEAPlatformAmplitude > 0 {
		p.PlatformAmplitude = c.EGEAPlatformAmplitude
	}
	if c.EGEARigidityLow > 0 {
		p.RigLoLim = c.EGEARigidityLow
	}
	if c.EGEARigidityHigh > 0 {
		p.RigHiLim = c.EGEARigidityHigh
	}
	return p
}

// Vehicle returns the configured vehicle class as the analysis type.
func (c *Config) Vehicle() egea.VehicleType {
	if c.VehicleType == "N1" {
		return egea.VehicleN1
	}
	return egea.VehicleM1
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
