package database

import (
	"context"
	"time"
)

// HealthStatus reports database connectivity and pool statistics.
type HealthStatus struct {
	Status           string        `json:"status"`
	ResponseTime     time.Duration `json:"response_time_ms"`
	TotalConns       int32         `json:"total_conns"`
	AcquiredConns    int32         `json:"acquired_conns"`
	IdleConns        int32         `json:"idle_conns"`
	MaxConns         int32         `json:"max_conns"`
	NewConnsCount    int64         `json:"new_conns_count"`
	AcquireCount     int64         `json:"acquire_count"`
}

// Health pings the pool and returns connectivity plus pool statistics.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()

	if err := c.Pool.Ping(ctx); err != nil {
		return &HealthStatus{
			Status:       "unhealthy",
			ResponseTime: time.Since(start),
		}, err
	}

	stat := c.Pool.Stat()
	return &HealthStatus{
		Status:        "healthy",
		ResponseTime:  time.Since(start),
		TotalConns:    stat.TotalConns(),
		AcquiredConns: stat.AcquiredConns(),
		IdleConns:     stat.IdleConns(),
		MaxConns:      stat.MaxConns(),
		NewConnsCount: stat.NewConnsCount(),
		AcquireCount:  stat.AcquireCount(),
	}, nil
}
