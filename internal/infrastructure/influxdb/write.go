package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement and tag names for heartbeat points.
const (
	measurementAPStatus = "ap_status"

	tagCode   = "code"
	tagParish = "parish"
)

// APStatusPoint is one access point heartbeat flattened for storage.
type APStatusPoint struct {
	Code           string
	ParishID       string
	Status         string
	SignalDBM      *int
	ConnectedUsers int
	Timestamp      time.Time
}

// WriteAPStatus queues a heartbeat point. Writes are batched and
// non-blocking; failures surface through the error callback.
func (c *Client) WriteAPStatus(p APStatusPoint) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	fields := map[string]any{
		"status":          p.Status,
		"connected_users": p.ConnectedUsers,
	}
	if p.SignalDBM != nil {
		fields["signal_dbm"] = *p.SignalDBM
	}

	tags := map[string]string{tagCode: p.Code}
	if p.ParishID != "" {
		tags[tagParish] = p.ParishID
	}

	point := influxdb2.NewPoint(measurementAPStatus, tags, fields, ts)
	c.writeAPI.WritePoint(point)

	return nil
}
