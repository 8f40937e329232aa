// Package mqtt wraps paho.mqtt.golang for access point telemetry.
//
// Access points publish heartbeats to portal/ap/<code>/status; the
// telemetry ingestor subscribes through this client. Subscriptions are
// tracked and restored automatically after a reconnect, so a broker
// restart never silently drops the heartbeat stream.
package mqtt
