package logging

import "go.uber.org/zap/zapcore"

// Config is the configuration for the logging subsystem.
type Config struct {
	// Level is the logging level.
	Level zapcore.Level `yaml:"level"`
	// Encoding is either "console" or "json".
	Encoding string `yaml:"encoding"`
	// OutputPaths are the sinks logs are written to.
	OutputPaths []string `yaml:"output_paths"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Level:       zapcore.InfoLevel,
		Encoding:    "console",
		OutputPaths: []string{"stderr"},
	}
}
