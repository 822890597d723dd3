/*
Package http is the external-facing session gateway.

It adapts calls from a conversational front end to the onboarding state
machine and packages every answer, success or failure, as a structured
result carrying the current session snapshot. Observers subscribe to full
snapshots over SSE; Prometheus metrics are exposed on /metrics.
*/
package http
