package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/config"
)

// Write batching constants. Heartbeats arrive at most once per access
// point per interval, so small batches with a short flush keep data
// fresh without hammering the server.
const (
	batchSize     = 50
	flushInterval = 5 * time.Second
	pingTimeout   = 10 * time.Second
)

// ErrorCallback receives async write failures from the batching writer.
type ErrorCallback func(err error)

// Client wraps the InfluxDB v2 client with a non-blocking write API.
// All methods are safe for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	connected bool
	connMu    sync.RWMutex

	onError   ErrorCallback
	onErrorMu sync.RWMutex

	done chan struct{}
}

// Connect creates a client and verifies the server is reachable.
// Returns ErrDisabled when influxdb is turned off in config; callers
// treat that as "no sink" rather than a failure.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(batchSize).
		SetFlushInterval(uint(flushInterval.Milliseconds()))

	c := &Client{
		client: influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts),
		cfg:    cfg,
		done:   make(chan struct{}),
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := c.client.Ping(pingCtx)
	if err != nil {
		c.client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !ok {
		c.client.Close()
		return nil, fmt.Errorf("%w: ping returned not ready", ErrConnectionFailed)
	}

	c.writeAPI = c.client.WriteAPI(cfg.Org, cfg.Bucket)
	c.connected = true

	go c.handleWriteErrors()

	return c, nil
}

// handleWriteErrors drains the async error channel until Close.
// Without a consumer the channel backs up and writes stall.
func (c *Client) handleWriteErrors() {
	errCh := c.writeAPI.Errors()
	for {
		select {
		case err, open := <-errCh:
			if !open {
				return
			}
			c.onErrorMu.RLock()
			cb := c.onError
			c.onErrorMu.RUnlock()
			if cb != nil {
				cb(err)
			}
		case <-c.done:
			return
		}
	}
}

// SetOnError registers a callback for async write failures.
func (c *Client) SetOnError(cb ErrorCallback) {
	c.onErrorMu.Lock()
	c.onError = cb
	c.onErrorMu.Unlock()
}

// IsConnected reports whether the client passed its initial ping.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := c.client.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("influxdb ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb ping: server not ready")
	}
	return nil
}

// Flush forces any buffered points to be written immediately.
func (c *Client) Flush() {
	if c.writeAPI != nil {
		c.writeAPI.Flush()
	}
}

// Close flushes pending writes and releases resources.
func (c *Client) Close() {
	c.connMu.Lock()
	if !c.connected {
		c.connMu.Unlock()
		return
	}
	c.connected = false
	c.connMu.Unlock()

	close(c.done)

	if c.writeAPI != nil {
		c.writeAPI.Flush()
	}
	c.client.Close()
}
