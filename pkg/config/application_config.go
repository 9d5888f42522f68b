package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the compiler process itself.
type ApplicationConfiguration struct {
	// LogLevel is one of zap levels (debug, info, warn, error...).
	LogLevel string `yaml:"LogLevel"`
	// LogPath is a file to write logs to, stderr is used if empty.
	LogPath string `yaml:"LogPath"`
}

// Validate checks ApplicationConfiguration for internal consistency.
func (a ApplicationConfiguration) Validate() error {
	if len(a.LogLevel) != 0 {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("LogLevel: %w", err)
		}
	}
	return nil
}
