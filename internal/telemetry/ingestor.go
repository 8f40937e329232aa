package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/influxdb"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// heartbeatTopicFilter matches one status topic per access point code.
const heartbeatTopicFilter = "portal/ap/+/status"

// heartbeatQoS is at-least-once. A duplicate heartbeat is harmless;
// a dropped one leaves last_seen_at stale for a full interval.
const heartbeatQoS = 1

// processTimeout bounds the database work per message so a slow disk
// cannot back up paho's delivery goroutines.
const processTimeout = 5 * time.Second

// Subscriber is the part of the MQTT client the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// heartbeat is the wire format access points publish.
type heartbeat struct {
	Status         string `json:"status"`
	SignalDBM      *int   `json:"signal_dbm"`
	ConnectedUsers int    `json:"connected_users"`
}

// Ingestor consumes heartbeats and persists them.
type Ingestor struct {
	aps    *portal.AccessPointRepository
	influx *influxdb.Client
	logger *slog.Logger
}

// NewIngestor creates an ingestor. influx may be nil when the sink is
// disabled.
func NewIngestor(aps *portal.AccessPointRepository, influx *influxdb.Client, logger *slog.Logger) *Ingestor {
	return &Ingestor{aps: aps, influx: influx, logger: logger}
}

// Start subscribes to the heartbeat topic filter.
func (i *Ingestor) Start(sub Subscriber) error {
	if err := sub.Subscribe(heartbeatTopicFilter, heartbeatQoS, i.handleMessage); err != nil {
		return fmt.Errorf("subscribing to heartbeats: %w", err)
	}
	i.logger.Info("telemetry ingestor started", "topic", heartbeatTopicFilter)
	return nil
}

// handleMessage processes one heartbeat. Runs on paho's goroutines.
func (i *Ingestor) handleMessage(topic string, payload []byte) error {
	code, ok := codeFromTopic(topic)
	if !ok {
		return fmt.Errorf("malformed heartbeat topic %q", topic)
	}

	var hb heartbeat
	if err := json.Unmarshal(payload, &hb); err != nil {
		return fmt.Errorf("decoding heartbeat from %s: %w", code, err)
	}

	status := portal.AccessPointStatus(hb.Status)
	if !portal.IsValidStatus(status) {
		return fmt.Errorf("heartbeat from %s: invalid status %q", code, hb.Status)
	}
	if hb.ConnectedUsers < 0 {
		return fmt.Errorf("heartbeat from %s: negative connected_users", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if err := i.aps.RecordHeartbeat(ctx, code, status, hb.SignalDBM, hb.ConnectedUsers); err != nil {
		if errors.Is(err, portal.ErrAccessPointNotFound) {
			// Unprovisioned hardware on the broker. Log once per message
			// rather than erroring; the handler error path is for faults.
			i.logger.Warn("heartbeat from unknown access point", "code", code)
			return nil
		}
		return fmt.Errorf("recording heartbeat from %s: %w", code, err)
	}

	i.logger.Debug("heartbeat recorded",
		"code", code, "status", hb.Status, "connected_users", hb.ConnectedUsers)

	i.writePoint(ctx, code, hb)
	return nil
}

// writePoint queues a time-series point when the sink is available.
// Sink failures never fail the heartbeat; SQLite already has the data.
func (i *Ingestor) writePoint(ctx context.Context, code string, hb heartbeat) {
	if i.influx == nil || !i.influx.IsConnected() {
		return
	}

	point := influxdb.APStatusPoint{
		Code:           code,
		Status:         hb.Status,
		SignalDBM:      hb.SignalDBM,
		ConnectedUsers: hb.ConnectedUsers,
		Timestamp:      time.Now().UTC(),
	}

	if ap, err := i.aps.GetByCode(ctx, code); err == nil && ap.ParishID != nil {
		point.ParishID = *ap.ParishID
	}

	if err := i.influx.WriteAPStatus(point); err != nil {
		i.logger.Warn("influxdb write skipped", "code", code, "error", err)
	}
}

// codeFromTopic extracts the access point code from a heartbeat topic.
func codeFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "portal" || parts[1] != "ap" || parts[3] != "status" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
