package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/util"
)

type Config struct {
	Paradox ParadoxConfig `yaml:"paradox"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Cache   bool          `yaml:"cache"`
}

type ParadoxConfig struct {
	Connection string        `yaml:"connection"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	SerialPort string        `yaml:"serial_port"`
	Baud       int           `yaml:"baud"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
	Rate       float64       `yaml:"rate"`
	Keepalive  time.Duration `yaml:"keepalive"`
	SyncTime   bool          `yaml:"sync_time"`
	// Labels limits label synchronization per entity class. A class that is
	// absent is read in full; an empty list skips it.
	Labels map[string][]int `yaml:"labels"`
}

type MQTTConfig struct {
	ClientID           string `yaml:"client_id"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Keepalive          int    `yaml:"keepalive"`
	Password           string `yaml:"password"`
	QOS                int    `yaml:"qos"`
	Retain             bool   `yaml:"retain"`
	Username           string `yaml:"username"`
	CA                 string `yaml:"ca"`
	Cert               string `yaml:"cert"`
	Key                string `yaml:"key"`
	RejectUnauthorized bool   `yaml:"reject_unauthorized"`
	Prefix             string `yaml:"prefix"`
	Clean              bool   `yaml:"clean"`
}

type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

var connections = []string{"tcp", "serial"}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Paradox.Connection == "" {
		c.Paradox.Connection = "tcp"
	}
	if c.Paradox.Port == 0 {
		c.Paradox.Port = 10000
	}
	if c.Paradox.Baud == 0 {
		c.Paradox.Baud = 9600
	}
	if c.Paradox.Password == "" {
		c.Paradox.Password = "0000"
	}
	if c.Paradox.Timeout == 0 {
		c.Paradox.Timeout = 2 * time.Second
	}
	if c.Paradox.Retries == 0 {
		c.Paradox.Retries = 2
	}
	if c.Paradox.Rate == 0 {
		c.Paradox.Rate = 10
	}
	if c.Paradox.Keepalive == 0 {
		c.Paradox.Keepalive = 30 * time.Second
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "paradox2mqtt"
	}
	if c.MQTT.Host == "" {
		c.MQTT.Host = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.Keepalive == 0 {
		c.MQTT.Keepalive = 60
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = "paradox2mqtt"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9105"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first setting the bridge cannot work with.
func (c *Config) Validate() error {
	switch c.Paradox.Connection {
	case "tcp":
		if c.Paradox.Host == "" {
			return fmt.Errorf("paradox.host is required for tcp connections")
		}
	case "serial":
		if c.Paradox.SerialPort == "" {
			return fmt.Errorf("paradox.serial_port is required for serial connections")
		}
	default:
		return fmt.Errorf("paradox.connection must be %s, got %q", util.JoinWithOr(connections), c.Paradox.Connection)
	}
	if _, err := paradox.EncodePassword(c.Paradox.Password); err != nil {
		return fmt.Errorf("paradox.password: %w", err)
	}
	if c.Paradox.Retries < 0 {
		return fmt.Errorf("paradox.retries must not be negative")
	}
	if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	for class, indices := range c.Paradox.Labels {
		if !util.Contains(classNames(), class) {
			return fmt.Errorf("paradox.labels: unknown entity class %q, want %s", class, util.JoinWithOr(classNames()))
		}
		for _, i := range indices {
			if i < 1 {
				return fmt.Errorf("paradox.labels.%s: index %d must be 1 or more", class, i)
			}
		}
	}
	return nil
}

func classNames() []string {
	names := make([]string, len(paradox.Classes))
	for i, c := range paradox.Classes {
		names[i] = string(c)
	}
	return names
}

// LabelLimits converts the labels section into per class index limits.
func (c *Config) LabelLimits() map[paradox.EntityClass]paradox.IndexLimit {
	if len(c.Paradox.Labels) == 0 {
		return nil
	}
	limits := make(map[paradox.EntityClass]paradox.IndexLimit, len(c.Paradox.Labels))
	for class, indices := range c.Paradox.Labels {
		limits[paradox.EntityClass(class)] = paradox.NewIndexLimit(indices...)
	}
	return limits
}
