// Package metrics defines the recorder interfaces used to observe the plan
// lifecycle. A sink implements MetricsSink and any of the optional recorder
// interfaces it supports; MultiSink fans records out to several sinks and
// skips those lacking a recorder. Concrete Prometheus and InfluxDB sinks live
// in infra/metrics and register themselves with the factory.
package metrics
