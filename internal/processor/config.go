package processor

import (
	"fmt"
	"runtime"
	"time"
)

// Config holds batch processing options
type Config struct {
	// Concurrency bounds the number of documents in flight
	Concurrency int

	// ResolveDetails runs the payment-details registry on every parsed record
	ResolveDetails bool

	// MaxErrors stops the batch once this many documents failed; 0 means never
	MaxErrors int

	// ProgressInterval is how often batch progress is logged
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration for the processor
func DefaultConfig() *Config {
	return &Config{
		Concurrency:      runtime.NumCPU(),
		ResolveDetails:   true,
		MaxErrors:        0,
		ProgressInterval: 5 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative, got %d", c.MaxErrors)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval cannot be negative, got %v", c.ProgressInterval)
	}
	return nil
}
