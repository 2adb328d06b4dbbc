// Package observability wires OpenTelemetry tracing and metrics for spawned
// processes.
//
// Setup (no-op unless enabled):
//
//	shutdown, err := observability.Init(ctx, "procspawn", version, cfg.Observability)
//	defer shutdown(ctx)
//
// Instrumentation:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStart)
//	defer observability.EndSpan(span, err)
//
//	m, _ := observability.NewSpawnMetrics(observability.Meter("procspawn"))
//	m.RecordSpawn(ctx, "command", err)
package observability
