// Package telemetry ingests access point heartbeats from MQTT.
//
// Access points publish JSON status messages to portal/ap/<code>/status.
// The ingestor updates the access point row in SQLite on every message
// and, when an InfluxDB sink is configured, queues a time-series point
// for signal and load history.
package telemetry
