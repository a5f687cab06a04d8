// Package telemetry provides structured logging, Prometheus metrics, and
// OpenTelemetry tracing for the kitstrap installer.
//
// Logging is built on zerolog. The Logger type is the logging capability
// carried by the plugin execution context; child loggers scoped to a plugin
// or run are created with WithPlugin and WithRunID.
//
// Metrics cover install runs, per-plugin lifecycle calls, rollback activity,
// and blocked uninstalls, exported over a dedicated Prometheus registry.
//
// Tracing wraps the OpenTelemetry SDK with stdout and OTLP gRPC exporters
// and span helpers for run- and plugin-scoped work.
package telemetry
