package config

// LoggingConfig holds process logging configuration.
type LoggingConfig struct {
	// Level: debug, info, warn, error.
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Output destination: stdout, stderr.
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr"`
}
