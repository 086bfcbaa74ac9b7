package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration, loadable from a YAML file. Flags
// override file values.
type Config struct {
	// Name is the server's mDNS instance name.
	Name string `yaml:"name"`

	// Listen is the TCP listen address.
	Listen string `yaml:"listen"`

	// LogFile is the protocol log destination. Empty disables logging.
	LogFile string `yaml:"logFile"`

	// Advertise enables mDNS advertising.
	Advertise bool `yaml:"advertise"`

	// TLS enables TLS when both paths are set.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig points at the server's certificate pair.
type TLSConfig struct {
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Name:   "es-server",
		Listen: ":7410",
	}
}

// LoadConfig reads and parses a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}
