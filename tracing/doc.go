// Package tracing provides a thin wrapper around OpenTelemetry so that the
// orchestrator can open and close spans without importing the SDK directly.
package tracing
