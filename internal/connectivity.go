package internal

import (
	"context"
	"errors"
	"time"
)

// DefaultHealthTimeout bounds the startup health check
const DefaultHealthTimeout = 5 * time.Second

// Connectivity status lines
const (
	StatusConnected   = "Ready to chat! Press space to talk."
	StatusUnhealthy   = "API connection failed. Please check if the server is running."
	StatusUnreachable = "Server connection failed - running in demo mode"
)

// HealthChecker is the part of the backend the monitor needs
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CheckConnection performs one bounded health request. It reports whether
// the backend is usable; on failure the error is a *ConnectivityError.
func CheckConnection(ctx context.Context, hc HealthChecker, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := hc.Health(ctx); err != nil {
		var ce *ConnectivityError
		if !errors.As(err, &ce) {
			err = &ConnectivityError{Err: err}
		}
		LogWarn("Health check failed: %v", err)
		return false, err
	}

	LogDebug("Health check passed")
	return true, nil
}

// ConnectivityStatus returns the status line for a health check outcome
func ConnectivityStatus(err error) string {
	if err == nil {
		return StatusConnected
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) && !ce.Unreachable() {
		return StatusUnhealthy
	}
	return StatusUnreachable
}
