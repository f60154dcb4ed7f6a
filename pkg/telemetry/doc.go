// Package telemetry provides observability instrumentation for the adviser.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry) and metrics (Prometheus).
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Metrics.Enabled = true
//	cfg.Metrics.ListenAddress = ":9090"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//	tel.StartMetricsServer()
//
// The pipeline builder and run loop take the pieces explicitly:
//
//	builder := pipeline.NewBuilder(catalogue,
//	    pipeline.WithLogger(tel.Logger.Zerolog()),
//	    pipeline.WithMetrics(tel.Metrics),
//	    pipeline.WithTracer(tel.Tracer),
//	)
//
// # Metrics
//
// All metrics live in a registry owned by Metrics, namespaced with
// MetricsConfig.Namespace:
//
//   - pipeline_builds_total{mode,status}
//   - pipeline_build_duration_seconds{mode}
//   - pipeline_build_rounds{mode}
//   - pipeline_units_included_total{kind}
//   - runs_completed_total{status}, active_runs
//   - unit_hook_calls_total{hook,status}
//   - unit_hook_broadcast_duration_seconds{hook}
//   - unit_results_total{kind,outcome}
//   - report_products_added_total, report_products_evicted_total
//   - errors_by_class_total{class}
//
// A nil *Metrics or *Tracer is valid and records nothing.
package telemetry
