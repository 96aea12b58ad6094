// Package metric provides Prometheus metrics for bradis.
//
// It exposes counters and gauges for connections, command throughput, key
// expiration, background reclamation, blocked clients, and per-database key
// counts, served on the HTTP /metrics endpoint.
package metric
