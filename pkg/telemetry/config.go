package telemetry

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config contains the telemetry configuration of the adviser.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Environment is attached to every span as a resource attribute.
	Environment string

	Logging LoggingConfig
	Tracing TracingConfig
	Metrics MetricsConfig
}

// LoggingConfig configures the zerolog root logger.
type LoggingConfig struct {
	// Level is a zerolog level name; "disabled" silences the adviser.
	Level string
	// Format is "console" or "json".
	Format string
	// Output is stdout, stderr or a file path.
	Output string
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Enabled bool
	// Exporter is otlp, stdout or none.
	Exporter string
	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint     string
	SamplingRate float64
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool
	// ListenAddress serves /metrics when non-empty.
	ListenAddress string
	Namespace     string
}

// DefaultConfig returns a default telemetry configuration.
//
// Tracing and the metrics endpoint are off; the CLI turns them on from flags.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "adviser",
		ServiceVersion: "dev",
		Environment:    "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracing: TracingConfig{
			Exporter:     "none",
			SamplingRate: 1.0,
		},
		Metrics: MetricsConfig{
			Namespace: "thoth_adviser",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if c.ServiceVersion == "" {
		return fmt.Errorf("service version is required")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil || c.Logging.Level == "" {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}

	validExporters := map[string]bool{
		"otlp": true, "stdout": true, "none": true,
	}
	if c.Tracing.Enabled && !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("invalid trace exporter: %s", c.Tracing.Exporter)
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("otlp exporter requires an endpoint")
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got: %f", c.Tracing.SamplingRate)
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}

	return nil
}
