// Package influxdb is the optional time-series sink for access point
// heartbeats. When enabled in config, every heartbeat processed by the
// telemetry ingestor is also written as a point, giving operators
// signal and load history per access point. The HTTP API never reads
// from InfluxDB; SQLite stays the source of truth.
package influxdb
