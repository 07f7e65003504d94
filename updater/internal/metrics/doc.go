// Package metrics renders run statistics in the Prometheus text exposition
// format, for pickup by a node_exporter textfile collector.
package metrics
