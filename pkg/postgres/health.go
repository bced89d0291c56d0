package postgres

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus describes the connection pool as seen by the health endpoint
type HealthStatus struct {
	Connected       bool      `json:"connected"`
	Database        string    `json:"database"`
	OpenConnections int       `json:"open_connections"`
	InUse           int       `json:"in_use"`
	Latency         string    `json:"latency,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// HealthCheck pings the server and reports pool usage
func (p *Pool) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Database:  p.cfg.PostgresDB,
		Timestamp: time.Now(),
	}

	db, err := p.handle()
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}

	stats := db.Stats()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse

	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status, nil
	}
	status.Latency = time.Since(start).String()
	status.Connected = true

	return status, nil
}
