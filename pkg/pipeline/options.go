package pipeline

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/telemetry"
)

// BlockedUnitsEnv names the environment variable holding a comma separated
// list of unit names the builder never includes automatically.
const BlockedUnitsEnv = "THOTH_ADVISER_BLOCKED_UNITS"

// Option configures a Builder or a Config.
type Option func(*options)

type options struct {
	logger       zerolog.Logger
	metrics      *telemetry.Metrics
	tracer       *telemetry.Tracer
	blockedUnits map[string]struct{}
	blockedSet   bool
}

func newOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *telemetry.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithBlockedUnits overrides the block-list read from BlockedUnitsEnv.
func WithBlockedUnits(names ...string) Option {
	return func(o *options) {
		o.blockedUnits = make(map[string]struct{}, len(names))
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				o.blockedUnits[name] = struct{}{}
			}
		}
		o.blockedSet = true
	}
}

// BlockedUnitsFromEnv parses BlockedUnitsEnv.
func BlockedUnitsFromEnv() []string {
	raw := os.Getenv(BlockedUnitsEnv)
	if raw == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
