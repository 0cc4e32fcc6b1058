// Package observe provides the logging, tracing and metrics used by the
// query and mutation orchestrators.
//
// Logging goes through the Logger interface, backed by zap. Tracing and
// metrics use OpenTelemetry; NewObserver wires providers and exporters from
// a Config, and Middleware wraps a single fetch or mutation attempt with a
// span, a metrics record and a log line.
package observe
