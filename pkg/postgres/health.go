package postgres

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus reports the catalog database and its pool
type HealthStatus struct {
	Connected       bool          `json:"connected"`
	ServerVersion   string        `json:"server_version,omitempty"`
	Database        string        `json:"database"`
	Latency         time.Duration `json:"latency_ns,omitempty"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	Error           string        `json:"error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// HealthCheck pings the database and samples pool statistics. Failures are
// reported in the status rather than returned.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Database:  c.config.PostgresDB,
		Timestamp: time.Now(),
	}

	if c.db == nil {
		status.Error = ErrNotConnected.Error()
		return status, nil
	}

	stats := c.db.Stats()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle

	start := time.Now()
	if err := c.db.PingContext(ctx); err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status, nil
	}
	status.Latency = time.Since(start)
	status.Connected = true

	var version string
	if err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		status.Error = fmt.Sprintf("failed to get version: %v", err)
		return status, nil
	}
	status.ServerVersion = version

	return status, nil
}
