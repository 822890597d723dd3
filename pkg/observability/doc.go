/*
Package observability provides Prometheus metrics for the onboarding core and
a store decorator that records operation durations.
*/
package observability
