// Package config loads daemon settings from a YAML file over built-in defaults.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/sweeney/dht11-sensor/internal/dht11"
	"github.com/sweeney/dht11-sensor/internal/gpio"
	"github.com/sweeney/dht11-sensor/internal/logic"
	"github.com/sweeney/dht11-sensor/internal/mqtt"
	"github.com/sweeney/dht11-sensor/internal/report"
)

// Config is the top-level configuration.
type Config struct {
	Name     string       `yaml:"name"`
	Sensor   SensorConfig `yaml:"sensor"`
	MQTT     MQTTConfig   `yaml:"mqtt"`
	Report   ReportConfig `yaml:"report"`
	HTTPAddr string       `yaml:"http_addr"` // empty disables the status server
	LogLevel string       `yaml:"log_level"`
}

// SensorConfig describes the sensor line and read schedule.
type SensorConfig struct {
	Chip              string        `yaml:"chip"`
	Pin               int           `yaml:"pin"`
	Attempts          int           `yaml:"attempts"`
	Interval          time.Duration `yaml:"interval"`
	LostAfter         int           `yaml:"lost_after"`
	AbortOnBitTimeout bool          `yaml:"abort_on_bit_timeout"`
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker      string        `yaml:"broker"` // empty disables MQTT
	ClientID    string        `yaml:"client_id"`
	TopicPrefix string        `yaml:"topic_prefix"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
}

// ReportConfig describes the remote HTTP collector.
type ReportConfig struct {
	URL     string        `yaml:"url"` // empty disables reporting
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Name: "dht11",
		Sensor: SensorConfig{
			Chip:      gpio.DefaultChip,
			Pin:       gpio.DefaultPin,
			Attempts:  2,
			Interval:  10 * time.Second,
			LostAfter: logic.DefaultLostAfter,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "dht11-sensor",
			TopicPrefix: mqtt.DefaultTopicPrefix,
			Heartbeat:   15 * time.Minute,
		},
		Report: ReportConfig{
			Timeout: report.DefaultTimeout,
		},
		HTTPAddr: ":80",
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "open config")
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Validate rejects settings the sensor or daemon cannot run with.
func (c Config) Validate() error {
	if c.Sensor.Pin < 0 {
		return errors.Errorf("sensor.pin must be >= 0, got %d", c.Sensor.Pin)
	}
	if c.Sensor.Attempts < 1 {
		return errors.Errorf("sensor.attempts must be >= 1, got %d", c.Sensor.Attempts)
	}
	if c.Sensor.Interval < dht11.MinReadInterval {
		return errors.Errorf("sensor.interval must be at least %v, got %v", dht11.MinReadInterval, c.Sensor.Interval)
	}
	if c.Sensor.Chip == "" {
		return errors.New("sensor.chip must be set")
	}
	if c.MQTT.Heartbeat < 0 {
		return errors.Errorf("mqtt.heartbeat must be >= 0, got %v", c.MQTT.Heartbeat)
	}
	return nil
}

// Timing returns the decoder timing for this configuration.
func (c Config) Timing() dht11.Timing {
	t := dht11.DefaultTiming()
	t.AbortOnBitTimeout = c.Sensor.AbortOnBitTimeout
	return t
}
