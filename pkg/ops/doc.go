// Package ops serves the operational HTTP surface: liveness and readiness
// probes, Prometheus metrics, and a read-only JSON view of the per-guild
// rankings. It is meant for operators and dashboards, not for end users,
// and binds to its own address separate from the chat gateway.
package ops
