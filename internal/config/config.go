package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wanders/sparsnasdecode/internal/options"
)

// Config lists the transmitters the analyzer knows about.
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`
}

type DeviceConfig struct {
	Name         string `yaml:"name"`
	Serial       string `yaml:"serial"`
	PulsesPerKWh uint32 `yaml:"pulses_per_kwh"`
}

// Load reads and validates a device file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse validates YAML device config and applies defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Devices) == 0 {
		return Config{}, fmt.Errorf("devices is required")
	}

	names := make(map[string]bool, len(cfg.Devices))
	for i := range cfg.Devices {
		dev := &cfg.Devices[i]
		if dev.Serial == "" {
			return Config{}, fmt.Errorf("devices[%d].serial is required", i)
		}
		serial, err := options.ParseSerial(dev.Serial)
		if err != nil {
			return Config{}, fmt.Errorf("devices[%d].serial: %w", i, err)
		}
		if dev.Name == "" {
			dev.Name = options.FormatSerial(serial)
		}
		if names[dev.Name] {
			return Config{}, fmt.Errorf("devices[%d].name %q is not unique", i, dev.Name)
		}
		names[dev.Name] = true
		dev.PulsesPerKWh = options.PulsesPerKWh(dev.PulsesPerKWh)
	}
	return cfg, nil
}

// Device returns the device called name.
func (c Config) Device(name string) (DeviceConfig, bool) {
	for _, dev := range c.Devices {
		if dev.Name == name {
			return dev, true
		}
	}
	return DeviceConfig{}, false
}
