package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

var ErrInvalid = errors.New("invalid configuration")

func decodeYAML(data []byte, config *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(config)
	// An empty file changes nothing
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeJSON(data []byte, config *Config) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(config)
}

func applyFile(path string, config *Config) error {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("does not exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".json":
		return decodeJSON(data, config)
	case ".yaml", ".yml":
		return decodeYAML(data, config)
	}

	return fmt.Errorf("not in a valid format")
}

// Default returns the configuration in default.yaml.
func Default() (*Config, error) {
	config := Config{}
	err := decodeYAML(DEFAULT, &config)
	if err != nil {
		return nil, fmt.Errorf("invalid default config file: %w", err)
	}
	return &config, nil
}

// Process reads the provided configuration files in order and applies each
// one on top of the default configuration. Fields a file leaves out keep
// their previous value.
func Process(configPaths []string) (*Config, error) {
	config, err := Default()
	if err != nil {
		return nil, err
	}

	for _, path := range configPaths {
		err := applyFile(path, config)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %w",
				path,
				err,
			)
		}
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range", c.Server.Port)
	}

	err := c.Table.Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	ingress := c.Ingress
	switch {
	case ingress.SendBuffer < 2:
		return invalid("ingress.sendBuffer must be at least 2")
	case ingress.WriteTimeout <= 0:
		return invalid("ingress.writeTimeout must be positive")
	case ingress.ThrowsPerSecond < 0:
		return invalid("ingress.throwsPerSecond must not be negative")
	case ingress.ThrowsPerSecond > 0 && ingress.ThrowBurst < 1:
		return invalid("ingress.throwBurst must be at least 1 when throws are limited")
	case len(ingress.OriginPatterns) == 0:
		return invalid("ingress.originPatterns must not be empty")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return invalid("redis.address is required when redis is enabled")
	}

	if c.Redis.Enabled && c.Redis.StatusInterval <= 0 {
		return invalid("redis.statusInterval must be positive")
	}

	return nil
}
