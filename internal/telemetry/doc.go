// Package telemetry sets up OpenTelemetry tracing and metrics for flowplan.
//
// New builds tracer and meter providers exporting over OTLP (gRPC by default,
// or http/protobuf). A disabled config yields an instance whose Tracer and
// Meter fall back to the global no-op providers, and exporter failures mark
// the instance degraded instead of failing startup.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	defer tel.Shutdown(ctx)
//	meter := tel.Meter("github.com/fyrsmithlabs/flowplan/internal/generator")
//
// Tests use NewTestTelemetry, which records spans in memory and collects
// metrics through a manual reader.
package telemetry
