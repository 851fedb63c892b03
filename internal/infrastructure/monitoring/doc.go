/*
Package monitoring provides Prometheus metrics for the supervisor.

# Overview

Each Metrics value owns a private registry, so tests and embedded supervisors
do not fight over the global default registry. All recording methods accept
a nil receiver, which lets callers run without metrics.

# Metrics

- buildwatch_sessions_started_total, buildwatch_sessions_active
- buildwatch_session_exits_total and buildwatch_session_duration_seconds by outcome
- buildwatch_spawn_errors_total
- buildwatch_lines_routed_total by destination (log, watch)
- buildwatch_queue_depth
- buildwatch_uptime_seconds plus the Go and process collectors

# Usage

	metrics := monitoring.NewMetrics()

	timer := monitoring.NewTimer(metrics)
	metrics.SessionStarted()
	// ... child runs ...
	timer.Stop("ok")

# Metrics Endpoint

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
*/
package monitoring
