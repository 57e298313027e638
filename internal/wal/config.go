package wal

import (
	"fmt"
	"time"
)

const (
	defaultMaxPayloadSize = 64 << 20
	defaultFrameSize      = 64 * 1024
)

// Config controls how a log file is opened.
type Config struct {
	Path            string
	ReadOnly        bool
	SyncInterval    time.Duration
	MaxPayloadSize  int
	DisableChecksum bool
}

// DefaultConfig returns a read-write configuration for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		MaxPayloadSize: defaultMaxPayloadSize,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = defaultMaxPayloadSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("invalid log config: Path is empty")
	}
	if c.MaxPayloadSize < 0 || uint64(c.MaxPayloadSize) > maxPayloadLen {
		return fmt.Errorf("invalid log config: MaxPayloadSize out of range")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("invalid log config: SyncInterval must be >= 0")
	}
	return nil
}
