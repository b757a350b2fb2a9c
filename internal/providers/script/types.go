package script

import (
	"errors"
	"time"
)

var (
	ErrPoolClosed = errors.New("script pool is closed")
	ErrTimeout    = errors.New("script runtime acquisition timeout")
)

// Config defines script runtime limits
type Config struct {
	MaxMemoryMB   int64         // Enables the call stack cap when positive
	Timeout       time.Duration // Execution timeout
	EnableConsole bool          // Route console.* to the logger
	PoolSize      int           // Pre-created runtimes
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		MaxMemoryMB:   50,
		Timeout:       5 * time.Second,
		EnableConsole: true,
		PoolSize:      4,
	}
}
