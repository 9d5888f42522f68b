package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/bfc/pkg/emit"
	"gopkg.in/yaml.v3"
)

// Version is the version of the compiler, set at build time.
var Version string

// Config top level struct representing the config for the compiler.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
	CompilerConfiguration    CompilerConfiguration    `yaml:"CompilerConfiguration"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
		},
		CompilerConfiguration: CompilerConfiguration{
			DumpIndent: emit.DefaultIndent,
		},
	}
}

// LoadFile loads config from the provided path. Fields missing from the file
// keep their default values.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks Config for internal consistency.
func (c Config) Validate() error {
	if err := c.ApplicationConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid ApplicationConfiguration: %w", err)
	}
	if err := c.CompilerConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid CompilerConfiguration: %w", err)
	}
	return nil
}
