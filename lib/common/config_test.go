package common

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultStoreConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected the default config to be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *StoreConfig)
		wantErr string
	}{
		{"unknown engine", func(c *StoreConfig) { c.Engine = "sled" }, "unknown engine"},
		{"empty path", func(c *StoreConfig) { c.Path = "" }, "path must not be empty"},
		{"zero buffer", func(c *StoreConfig) { c.ReadBufferSize = 0 }, "read buffer size must be positive"},
		{"bad log level", func(c *StoreConfig) { c.LogLevel = "loud" }, "invalid log level"},
		{"mem engine", func(c *StoreConfig) { c.Engine = "mem" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultStoreConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := StoreConfig{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected an error for an empty config")
	}
	for _, want := range []string{"unknown engine", "path", "read buffer", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in %v", want, err)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("Expected %q to be valid, got %v", level, err)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("Expected trace to be rejected")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultStoreConfig()
	out := cfg.String()
	for _, want := range []string{"STORE", "LOGGING", "Engine", "bolt", "1024 bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in config output:\n%s", want, out)
		}
	}
}
