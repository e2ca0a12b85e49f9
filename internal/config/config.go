package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Sampling
	Interval int // seconds between iterations

	// Sink selection: "influx" or "mqtt"
	Sink string

	// InfluxDB
	InfluxHost     string
	InfluxPort     int
	InfluxUsername string
	InfluxPassword string
	InfluxDatabase string
	Measurement    string
	HostTag        string

	// MQTT mirror sink
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// Hardware
	I2CBus        string // empty = first available bus
	PMSSerialPort string
	PMSBaudRate   int

	// Display splash
	Display        bool
	DisplayI2CAddr uint16

	// Reading shape
	GasKOhms bool // report gas resistances in kΩ instead of ohms

	// Temperature calibration: "offset" or "divisor"
	TempCalibration string
	TempOffset      float64
	TempDivisor     float64

	// Web readout
	WebEnabled bool
	WebPort    int
}

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

	cfg := &Config{
		Sink:            "influx",
		InfluxPort:      8086,
		HostTag:         "enviroplus",
		MQTTClientID:    "airquality-home",
		PMSSerialPort:   "/dev/serial0",
		PMSBaudRate:     9600,
		DisplayI2CAddr:  0x3C,
		GasKOhms:        true,
		TempCalibration: "offset",
		TempOffset:      -2.3,
		TempDivisor:     1.147,
		WebPort:         8080,
	}

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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sampling
	case "INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid INTERVAL %q: %w", value, err)
		}
		c.Interval = interval

	// Sink
	case "SINK":
		if value != "influx" && value != "mqtt" {
			return fmt.Errorf("SINK must be influx or mqtt, got %q", value)
		}
		c.Sink = value

	// InfluxDB
	case "INFLUX_HOST":
		c.InfluxHost = value
	case "INFLUX_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid INFLUX_PORT %q: %w", value, err)
		}
		c.InfluxPort = port
	case "INFLUX_USERNAME":
		c.InfluxUsername = value
	case "INFLUX_PASSWORD":
		c.InfluxPassword = value
	case "INFLUX_DATABASE":
		c.InfluxDatabase = value
	case "MEASUREMENT":
		c.Measurement = value
	case "HOST_TAG":
		c.HostTag = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value

	// Hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "PMS_SERIAL_PORT":
		c.PMSSerialPort = value
	case "PMS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PMS_BAUD_RATE %q: %w", value, err)
		}
		c.PMSBaudRate = rate

	// Display
	case "DISPLAY":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY %q: %w", value, err)
		}
		c.Display = enabled
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		// The ssd1306 driver always talks to 0x3C; reject anything else at
		// load instead of silently ignoring it.
		if addr != 0x3C {
			return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x3C (ssd1306 driver fixes the address), got 0x%02X", addr)
		}
		c.DisplayI2CAddr = uint16(addr)

	// Reading shape
	case "GAS_KOHMS":
		kohms, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid GAS_KOHMS %q: %w", value, err)
		}
		c.GasKOhms = kohms

	// Temperature calibration
	case "TEMP_CALIBRATION":
		if value != "offset" && value != "divisor" {
			return fmt.Errorf("TEMP_CALIBRATION must be offset or divisor, got %q", value)
		}
		c.TempCalibration = value
	case "TEMP_OFFSET":
		offset, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TEMP_OFFSET %q: %w", value, err)
		}
		c.TempOffset = offset
	case "TEMP_DIVISOR":
		divisor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TEMP_DIVISOR %q: %w", value, err)
		}
		c.TempDivisor = divisor

	// Web readout
	case "WEB_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_ENABLED %q: %w", value, err)
		}
		c.WebEnabled = enabled
	case "WEB_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_PORT %q: %w", value, err)
		}
		c.WebPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("INTERVAL is required and must be positive")
	}
	if c.Measurement == "" {
		return fmt.Errorf("MEASUREMENT is required")
	}
	switch c.Sink {
	case "influx":
		if c.InfluxHost == "" {
			return fmt.Errorf("INFLUX_HOST is required")
		}
		if c.InfluxDatabase == "" {
			return fmt.Errorf("INFLUX_DATABASE is required")
		}
	case "mqtt":
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
		if c.MQTTTopic == "" {
			return fmt.Errorf("MQTT_TOPIC is required")
		}
	}
	if c.PMSBaudRate <= 0 {
		return fmt.Errorf("PMS_BAUD_RATE must be positive")
	}
	return nil
}

// InfluxAddr returns the full HTTP address of the InfluxDB endpoint.
func (c *Config) InfluxAddr() string {
	return fmt.Sprintf("http://%s:%d", c.InfluxHost, c.InfluxPort)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
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
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
