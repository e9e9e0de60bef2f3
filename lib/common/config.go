package common

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary/engines"
	"strings"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds everything needed to open a store
type StoreConfig struct {
	// Engine is the name of the engine behind the boundary (see engines.Names)
	Engine string
	// Path of the store, its meaning depends on the engine
	Path string
	// ReadBufferSize is the initial buffer size (in bytes) readers scan with
	ReadBufferSize int

	// Logging configuration
	LogLevel string
}

// DefaultStoreConfig returns the configuration used when nothing else is set
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Engine:         string(engines.ImplBolt),
		Path:           "./data",
		ReadBufferSize: 1024,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors
func (c *StoreConfig) Validate() error {
	var errs []error

	if _, err := engines.Lookup(c.Engine); err != nil {
		errs = append(errs, err)
	}
	if c.Path == "" {
		errs = append(errs, errors.New("the store path must not be empty"))
	}
	if c.ReadBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("the read buffer size must be positive, got %d", c.ReadBufferSize))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Store settings
	addSection("Store")
	addField("Engine", c.Engine)
	addField("Path", c.Path)
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.ReadBufferSize))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
